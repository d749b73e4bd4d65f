package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message" example:"Invalid OTP"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"OTP sent successfully"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// Optional interfaces a handler result may implement to shape the envelope.
type (
	statusCoder interface{ StatusCode() int }
	messager    interface{ Message() string }
	metaer      interface{ Meta() map[string]any }
)

// writeError renders err as an error envelope and hands it to the recorder
// so the access log carries the cause. Anything that is not a goerror is
// hidden behind a generic 500.
func writeError(w http.ResponseWriter, err error) {
	if setter, ok := w.(interface{ SetError(error) }); ok {
		setter.SetError(err)
	}

	gerr, ok := goerror.As(err)
	if !ok {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}
	var verr validator.V10ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Values()
	case len(gerr.Fields()) > 0:
		resp.Error = gerr.Fields()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeResult(w http.ResponseWriter, result any) {
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	code := http.StatusOK
	if sc, ok := result.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}

	env := successResponse{Message: defaultSuccessMessage, Data: result}
	if m, ok := result.(messager); ok {
		env.Message = m.Message()
	}
	if m, ok := result.(metaer); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
