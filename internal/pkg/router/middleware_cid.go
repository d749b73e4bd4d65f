package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is echoed on every response and forwarded to
	// broker messages so one send can be followed into the notification
	// consumer.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted when a proxy already assigned an id.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// acceptCorrelationID keeps caller supplied ids that are safe to log and to
// put back in a header.
func acceptCorrelationID(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxCorrelationIDLen {
		return "", false
	}
	for _, c := range v {
		if c < 0x21 || c > 0x7e {
			return "", false
		}
	}
	return v, true
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid, ok := acceptCorrelationID(r.Header.Get(HeaderCorrelationID))
			if !ok {
				cid, ok = acceptCorrelationID(r.Header.Get(HeaderRequestID))
			}
			if !ok && gen != nil {
				cid, ok = gen.Generate(), true
			}

			if ok {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}
			next.ServeHTTP(w, r)
		})
	}
}
