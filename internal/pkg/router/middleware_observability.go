package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Bodies are logged up to this size; the rest is dropped from the log only.
const maxLoggedBody = 16 * 1024

// recorder captures what the handler wrote for logging.
type recorder struct {
	http.ResponseWriter
	status    int
	written   int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		w.body.Write(p[:min(room, len(p))])
		w.truncated = w.truncated || len(p) > room
	} else if len(p) > 0 {
		w.truncated = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

// SetError lets the endpoint adapter attach the handler error to the span.
func (w *recorder) SetError(err error) { w.err = err }

func (w *recorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBody bytes and restores the body for the
// handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// loggableBody masks JSON bodies and summarises anything else.
func loggableBody(body []byte, truncated bool, maskKeys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var v any
	switch {
	case json.Unmarshal(body, &v) == nil:
		v = instrument.MaskValue(v, maskKeys)
	case utf8.Valid(body):
		v = string(body)
	default:
		return "<binary>"
	}

	if truncated {
		return map[string]any{"body": v, "truncated": true}
	}
	return v
}

func maskedHeaders(h http.Header, maskKeys map[string]struct{}) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, secret := maskKeys[strings.ToLower(k)]; secret {
			out[k] = "***"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// middlewareObservability opens the server span, records request metrics and
// writes one access log line per request. The caller identity is taken from
// the request scope filled by the auth middlewares.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}
	maskKeys := instrument.MaskKeys(append(fields, "authorization", strings.ToLower(HeaderAPIKey)))

	tracer := ins.Tracer("otpify.http")
	meter := ins.Meter("otpify.http")

	requests, err := meter.Int64Counter("otpify.http.requests",
		metric.WithDescription("HTTP requests served, by route, status and auth method"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	latency, err := meter.Float64Histogram("otpify.http.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http latency histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddress(r.RemoteAddr),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()
			ctx, scope := withRequestScope(ctx)

			reqBody := peekBody(r)
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.String("auth.method", scope.auth),
			}
			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response.body.size", rec.written))
			if scope.userID != 0 {
				span.SetAttributes(attribute.Int64("enduser.id", scope.userID))
			}
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.Log(ctx, level, "http request",
				"method", r.Method,
				"route", route,
				"uri", r.RequestURI,
				"ip", r.RemoteAddr,
				"status", status,
				"latency_ms", elapsed.Milliseconds(),
				"bytes", rec.written,
				"auth", scope.auth,
				"user_id", scope.userID,
				"headers", maskedHeaders(r.Header, maskKeys),
				"request", loggableBody(reqBody, false, maskKeys),
				"response", loggableBody(rec.body.Bytes(), rec.truncated, maskKeys),
			)
		})
	}
}
