package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/dashboard/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type fakeUC struct {
	logsIn usecase.LogsInput
	err    error
}

func (f *fakeUC) Stats(context.Context) (*usecase.StatsOutput, error) {
	return &usecase.StatsOutput{
		TotalRequests: 4,
		SuccessRate:   "50.0%",
		AvgResponse:   "12ms",
		ActiveUsers:   2,
		ChartData:     []usecase.ChartPoint{{Name: "Mon", Value: 4}},
	}, f.err
}

func (f *fakeUC) Logs(_ context.Context, in usecase.LogsInput) ([]entity.LogEntry, error) {
	f.logsIn = in
	return []entity.LogEntry{{ID: 9, Endpoint: "/api/otp/send", Status: "success", Timestamp: time.Unix(1700000000, 0), UserEmail: "a@example.com"}}, f.err
}

func (f *fakeUC) Export(context.Context) (*usecase.ExportOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ExportOutput{URL: "https://signed", ExpiresAt: 1700000900, Rows: 1}, nil
}

type fakeJWT struct{}

func (fakeJWT) Generate(int64, string) (string, error) { return "", nil }

func (fakeJWT) Verify(tok string) (jwt.Claims, error) {
	if tok != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 1}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func serve(t *testing.T, uc uc, method, target, token string) (int, map[string]any) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := router.NewRouter(router.Config{Config: cfg, UUID: fixedID("cid"), JWT: fakeJWT{}, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, out
}

func TestStats(t *testing.T) {
	status, body := serve(t, &fakeUC{}, http.MethodGet, "/api/dashboard/stats", "good")

	if status != http.StatusOK {
		t.Fatalf("status=%d body=%v", status, body)
	}
	data, _ := body["data"].(map[string]any)
	chart, _ := data["chart_data"].([]any)
	if data["success_rate"] != "50.0%" || data["avg_response"] != "12ms" || len(chart) != 1 {
		t.Fatalf("data = %v", data)
	}

	status, _ = serve(t, &fakeUC{}, http.MethodGet, "/api/dashboard/stats", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", status)
	}
}

func TestLogs(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int32
	}{
		{name: "default", target: "/api/dashboard/logs", wantStatus: http.StatusOK},
		{name: "limit", target: "/api/dashboard/logs?limit=50", wantStatus: http.StatusOK, wantLimit: 50},
		{name: "bad limit", target: "/api/dashboard/logs?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUC{}

			status, body := serve(t, uc, http.MethodGet, tt.target, "good")

			if status != tt.wantStatus {
				t.Fatalf("status=%d body=%v", status, body)
			}
			if status != http.StatusOK {
				return
			}
			if uc.logsIn.Limit != tt.wantLimit {
				t.Fatalf("limit = %d", uc.logsIn.Limit)
			}
			data, _ := body["data"].([]any)
			first, _ := data[0].(map[string]any)
			if first["id"] != "9" || first["email"] != "a@example.com" || first["timestamp"] != float64(1700000000) {
				t.Fatalf("data = %v", data)
			}
		})
	}
}

func TestExport(t *testing.T) {
	status, body := serve(t, &fakeUC{}, http.MethodPost, "/api/dashboard/export", "good")
	if status != http.StatusOK || body["message"] != "Export is ready" {
		t.Fatalf("status=%d body=%v", status, body)
	}

	status, _ = serve(t, &fakeUC{err: goerror.NewBusiness("Export is not available", goerror.CodeBadRequest)}, http.MethodPost, "/api/dashboard/export", "good")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
}
