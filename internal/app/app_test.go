package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
	"github.com/shandysiswandi/otpify/internal/pkg/testkit"
)

const testConfig = `
app:
  name: Otpify
  server:
    max_goroutine: 16
hash:
  hmac:
    secret: test-hmac
  bcrypt:
    cost: 4
  otp:
    bcrypt_cost: 4
messaging:
  seal_key: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
jwt:
  secret: test-jwt-secret-0123456789abcdef0123456789abcdef0123456789abcdef
  issuer: otpify
  ttl_minutes: 5
modules:
  otp:
    delivery: async
    delivery_timeout_seconds: 5
  account:
    delivery: async
    reset_url: http://localhost:3000/reset-password
  notification:
    max_retries: 1
`

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type captureMail struct {
	mu   sync.Mutex
	sent []mail.Message
	ch   chan mail.Message
}

func (m *captureMail) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	select {
	case m.ch <- msg:
	default:
	}
	return nil
}

func (m *captureMail) Close() error { return nil }

func (m *captureMail) next(t *testing.T) mail.Message {
	t.Helper()

	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no email delivered")
		return mail.Message{}
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *captureMail) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	mailer := &captureMail{ch: make(chan mail.Message, 8)}
	a := &App{
		ctx:       ctx,
		cancel:    cancel,
		config:    cfg,
		ins:       instrument.NewNoop(),
		mail:      mailer,
		storage:   storage.Disabled{},
		messaging: messaging.NewMemory(),
	}

	a.initLibraries()
	a.initJWT()
	a.dbConn = testkit.Postgres(t)
	a.cacheConn = testkit.Redis(t)
	a.idemp = idempotency.New(a.cacheConn)
	a.initHTTPServer()
	a.initModules()

	srv := httptest.NewServer(a.httpServer.Handler)
	t.Cleanup(func() {
		srv.Close()
		a.cancel()
		_ = a.messaging.Close()
		_ = a.goroutine.Wait()
	})

	return srv, mailer
}

func call(t *testing.T, srv *httptest.Server, method, path string, payload any, headers map[string]string) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode != http.StatusNoContent {
		t.Fatalf("decode: %v", err)
	}

	return resp.StatusCode, env
}

func TestApp_OTPLifecycle(t *testing.T) {
	srv, mailer := newTestServer(t)

	// Register
	status, env := call(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "owner@example.com",
		"password":  "Secret123!",
		"full_name": "Owner",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d (%s)", status, env.Message)
	}
	var user struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("register data: %v", err)
	}
	apiKey := map[string]string{router.HeaderAPIKey: user.APIKey}

	// Send without an API key
	status, _ = call(t, srv, http.MethodPost, "/api/otp/send", map[string]string{"email": "end@example.com"}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("send without key status = %d, want 401", status)
	}

	// Send
	status, env = call(t, srv, http.MethodPost, "/api/otp/send", map[string]string{"email": "end@example.com"}, apiKey)
	if status != http.StatusOK || env.Message != "OTP sent successfully" {
		t.Fatalf("send status = %d message = %q", status, env.Message)
	}

	msg := mailer.next(t)
	if len(msg.To) != 1 || msg.To[0] != "end@example.com" {
		t.Fatalf("mail to = %v", msg.To)
	}
	m := codePattern.FindStringSubmatch(msg.TextBody)
	if m == nil {
		t.Fatalf("no code in mail body %q", msg.TextBody)
	}
	code := m[1]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	// Wrong code
	status, env = call(t, srv, http.MethodPost, "/api/otp/verify", map[string]string{"email": "end@example.com", "otp": wrong}, apiKey)
	if status != http.StatusBadRequest || env.Message != "Invalid OTP" {
		t.Fatalf("wrong verify status = %d message = %q", status, env.Message)
	}

	// Right code
	status, env = call(t, srv, http.MethodPost, "/api/otp/verify", map[string]string{"email": "end@example.com", "otp": code}, apiKey)
	if status != http.StatusOK || env.Message != "OTP verified successfully" {
		t.Fatalf("verify status = %d message = %q", status, env.Message)
	}

	// Replay
	status, env = call(t, srv, http.MethodPost, "/api/otp/verify", map[string]string{"email": "end@example.com", "otp": code}, apiKey)
	if status != http.StatusBadRequest || env.Message != "No active OTP found for this email" {
		t.Fatalf("replay status = %d message = %q", status, env.Message)
	}

	// Dashboard
	status, env = call(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "owner@example.com",
		"password": "Secret123!",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("login status = %d (%s)", status, env.Message)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("login data: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + login.AccessToken}

	status, env = call(t, srv, http.MethodGet, "/api/dashboard/stats", nil, bearer)
	if status != http.StatusOK {
		t.Fatalf("stats status = %d (%s)", status, env.Message)
	}
	var stats struct {
		TotalRequests int64  `json:"total_requests"`
		SuccessRate   string `json:"success_rate"`
		ChartData     []any  `json:"chart_data"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("stats data: %v", err)
	}
	if stats.TotalRequests != 3 || stats.SuccessRate != "66.7%" || len(stats.ChartData) != 7 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestApp_DashboardRequiresBearer(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := call(t, srv, http.MethodGet, "/api/dashboard/stats", nil, nil)

	if status != http.StatusUnauthorized || env.Message != "Authentication required" {
		t.Fatalf("status = %d message = %q", status, env.Message)
	}
}

func TestApp_PasswordResetMail(t *testing.T) {
	srv, mailer := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "reset@example.com",
		"password": "Secret123!",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}

	status, _ = call(t, srv, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "reset@example.com"}, nil)
	if status != http.StatusOK {
		t.Fatalf("forgot status = %d", status)
	}

	msg := mailer.next(t)
	if msg.Subject != "Reset your password" || !bytes.Contains([]byte(msg.TextBody), []byte("http://localhost:3000/reset-password?token=")) {
		t.Fatalf("reset mail = %+v", msg)
	}
}
