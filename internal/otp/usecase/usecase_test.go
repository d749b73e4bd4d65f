package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

var t0 = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

type fakeRepo struct {
	otps       []entity.OTP
	logs       []entity.UsageLog
	createErr  error
	getErr     error
	updateErr  error
	loseVerify bool
}

func (f *fakeRepo) CreateOTP(_ context.Context, otp entity.OTP, log entity.UsageLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.otps = append(f.otps, otp)
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeRepo) GetLatestUnverifiedOTP(_ context.Context, email string) (*entity.OTP, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var latest *entity.OTP
	for i := range f.otps {
		o := f.otps[i]
		if o.Email != email || o.IsVerified {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) ||
			(o.CreatedAt.Equal(latest.CreatedAt) && o.ID > latest.ID) {
			latest = &o
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	return latest, nil
}

func (f *fakeRepo) find(id string) *entity.OTP {
	for i := range f.otps {
		if f.otps[i].ID == id {
			return &f.otps[i]
		}
	}
	return nil
}

func (f *fakeRepo) IncrementOTPAttempts(_ context.Context, id string, log entity.UsageLog) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	f.logs = append(f.logs, log)
	o := f.find(id)
	if o == nil || o.IsVerified || o.Attempts >= entity.MaxAttempts {
		return false, nil
	}
	o.Attempts++
	return true, nil
}

func (f *fakeRepo) MarkOTPVerified(_ context.Context, id string, now time.Time, log entity.UsageLog) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	o := f.find(id)
	if f.loseVerify || o == nil || o.IsVerified || o.Attempts >= entity.MaxAttempts || now.After(o.ExpiresAt) {
		return false, nil
	}
	o.IsVerified = true
	f.logs = append(f.logs, log)
	return true, nil
}

func (f *fakeRepo) CreateUsageLog(_ context.Context, log entity.UsageLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeDispatcher struct {
	got []entity.Delivery
	err error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, d entity.Delivery) error {
	f.got = append(f.got, d)
	return f.err
}

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	f.calls++
	return f.allowed, time.Minute, f.err
}

type seqUUID struct{ n int }

func (s *seqUUID) Generate() string {
	s.n++
	return fmt.Sprintf("otp-%03d", s.n)
}

type seqNumber struct{ n int64 }

func (s *seqNumber) Generate() int64 {
	s.n++
	return s.n
}

type fixture struct {
	uc    *Usecase
	repo  *fakeRepo
	disp  *fakeDispatcher
	clock *clock.Fixed
	hash  hash.Hash
}

func newFixture(t *testing.T, cfgYAML string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	f := &fixture{
		repo:  &fakeRepo{},
		disp:  &fakeDispatcher{},
		clock: clock.NewFixed(t0),
		hash:  hash.NewHMACSHA256("test-secret"),
	}
	f.uc = New(Dependency{
		RepoDB:     f.repo,
		Dispatcher: f.disp,
		Config:     cfg,
		Hash:       f.hash,
		UUID:       &seqUUID{},
		UID:        &seqNumber{},
		Clock:      f.clock,
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})
	return f
}

func assertBusiness(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	gerr, ok := goerror.As(err)
	if !ok {
		t.Fatalf("expected goerror, got %v", err)
	}
	if gerr.Code() != code {
		t.Fatalf("code = %v, want %v (msg %q)", gerr.Code(), code, gerr.Msg())
	}
	if msg != "" && gerr.Msg() != msg {
		t.Fatalf("message = %q, want %q", gerr.Msg(), msg)
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != entity.CodeLength {
			t.Fatalf("len(%q) = %d", code, len(code))
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("non digit in %q", code)
			}
		}
		seen[code] = struct{}{}
	}

	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
}

func TestIssue_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, "")

	// Act
	out, err := f.uc.Issue(context.Background(), IssueInput{UserID: 7, Email: " user@example.com "})

	// Assert
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(f.repo.otps) != 1 {
		t.Fatalf("records = %d, want 1", len(f.repo.otps))
	}
	rec := f.repo.otps[0]
	if out.ID != rec.ID || out.ExpiresAt != rec.ExpiresAt.Unix() {
		t.Fatalf("output %+v does not match record %+v", out, rec)
	}
	if rec.Email != "user@example.com" || rec.UserID != 7 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.ExpiresAt.Equal(t0.Add(5*time.Minute)) || !rec.CreatedAt.Equal(t0) {
		t.Fatalf("created %v expires %v", rec.CreatedAt, rec.ExpiresAt)
	}
	if rec.Attempts != 0 || rec.IsVerified {
		t.Fatalf("fresh record state %+v", rec)
	}

	if len(f.disp.got) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(f.disp.got))
	}
	code := f.disp.got[0].Code
	if rec.CodeHash == "" || rec.CodeHash == code {
		t.Fatal("code must be stored hashed")
	}
	if !f.hash.Verify(rec.CodeHash, code) {
		t.Fatal("stored hash does not match delivered code")
	}

	if len(f.repo.logs) != 1 {
		t.Fatalf("usage logs = %d, want 1", len(f.repo.logs))
	}
	log := f.repo.logs[0]
	if log.UserID != 7 || log.Endpoint != entity.EndpointSend || log.Status != entity.UsageStatusSuccess {
		t.Fatalf("unexpected usage log %+v", log)
	}
}

func TestIssue_NoDedup(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	ctx := context.Background()

	// Act
	for range 2 {
		if _, err := f.uc.Issue(ctx, IssueInput{UserID: 1, Email: "a@example.com"}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	// Assert
	if len(f.repo.otps) != 2 {
		t.Fatalf("records = %d, want 2", len(f.repo.otps))
	}
	if f.repo.otps[0].ID == f.repo.otps[1].ID {
		t.Fatal("record ids must be unique")
	}
}

func TestIssue_InvalidEmail(t *testing.T) {
	// Arrange
	f := newFixture(t, "")

	// Act
	_, err := f.uc.Issue(context.Background(), IssueInput{UserID: 1, Email: "not-an-email"})

	// Assert
	assertBusiness(t, err, goerror.CodeInvalidInput, "")
	if len(f.repo.otps) != 0 || len(f.disp.got) != 0 {
		t.Fatal("nothing may be written for invalid input")
	}
}

func TestIssue_StoreFailure(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	f.repo.createErr = errors.New("db down")

	// Act
	_, err := f.uc.Issue(context.Background(), IssueInput{UserID: 1, Email: "a@example.com"})

	// Assert
	gerr, ok := goerror.As(err)
	if !ok || gerr.Type() != goerror.TypeServer {
		t.Fatalf("expected server error, got %v", err)
	}
	if len(f.disp.got) != 0 || len(f.repo.logs) != 0 {
		t.Fatal("no delivery or usage log after a store failure")
	}
}

func TestIssue_DispatchFailureSwallowed(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	f.disp.err = errors.New("saturated")

	// Act
	_, err := f.uc.Issue(context.Background(), IssueInput{UserID: 1, Email: "a@example.com"})

	// Assert
	if err != nil {
		t.Fatalf("dispatch errors must not fail issuance: %v", err)
	}
	if len(f.repo.otps) != 1 {
		t.Fatal("record must exist")
	}
}

func TestIssue_Limiter(t *testing.T) {
	tests := []struct {
		name    string
		limiter *fakeLimiter
		wantErr bool
	}{
		{name: "allowed", limiter: &fakeLimiter{allowed: true}},
		{name: "rejected", limiter: &fakeLimiter{allowed: false}, wantErr: true},
		{name: "fails open", limiter: &fakeLimiter{err: errors.New("redis down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, "")
			f.uc.limiter = tt.limiter

			// Act
			_, err := f.uc.Issue(context.Background(), IssueInput{UserID: 1, Email: "a@example.com"})

			// Assert
			if tt.limiter.calls != 1 {
				t.Fatalf("limiter calls = %d", tt.limiter.calls)
			}
			if tt.wantErr {
				assertBusiness(t, err, goerror.CodeTooManyRequest, "")
				if len(f.repo.otps) != 0 {
					t.Fatal("limited request must not create a record")
				}
				return
			}
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
		})
	}
}

func issue(t *testing.T, f *fixture, email string) string {
	t.Helper()

	if _, err := f.uc.Issue(context.Background(), IssueInput{UserID: 1, Email: email}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	return f.disp.got[len(f.disp.got)-1].Code
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func countLogs(logs []entity.UsageLog, endpoint string, status entity.UsageStatus) int {
	n := 0
	for _, l := range logs {
		if l.Endpoint == endpoint && l.Status == status {
			n++
		}
	}
	return n
}

func TestVerify_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@example.com")

	// Act
	err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

	// Assert
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !f.repo.otps[0].IsVerified {
		t.Fatal("record must be verified")
	}
	if n := countLogs(f.repo.logs, entity.EndpointVerify, entity.UsageStatusSuccess); n != 1 {
		t.Fatalf("success logs = %d, want 1", n)
	}

	// a verified record is not active anymore
	err = f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})
	assertBusiness(t, err, goerror.CodeBadRequest, msgNoActiveOTP)
}

func TestVerify_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture) string
		wantMsg string
	}{
		{
			name:    "no active record",
			setup:   func(*testing.T, *fixture) string { return "123456" },
			wantMsg: msgNoActiveOTP,
		},
		{
			name: "attempts exhausted",
			setup: func(t *testing.T, f *fixture) string {
				code := issue(t, f, "a@example.com")
				f.repo.otps[0].Attempts = entity.MaxAttempts
				return code
			},
			wantMsg: msgTooManyAttempts,
		},
		{
			name: "expired",
			setup: func(t *testing.T, f *fixture) string {
				code := issue(t, f, "a@example.com")
				f.clock.Advance(entity.TTL + time.Second)
				return code
			},
			wantMsg: msgExpired,
		},
		{
			name: "mismatch",
			setup: func(t *testing.T, f *fixture) string {
				return wrongCode(issue(t, f, "a@example.com"))
			},
			wantMsg: msgInvalidCode,
		},
		{
			name: "verify race lost",
			setup: func(t *testing.T, f *fixture) string {
				code := issue(t, f, "a@example.com")
				f.repo.loseVerify = true
				return code
			},
			wantMsg: msgNoActiveOTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, "")
			code := tt.setup(t, f)

			// Act
			err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

			// Assert
			assertBusiness(t, err, goerror.CodeBadRequest, tt.wantMsg)
			if len(f.repo.otps) > 0 && f.repo.otps[0].IsVerified {
				t.Fatal("rejected record must stay unverified")
			}
		})
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@example.com")
	f.clock.Advance(entity.TTL)

	// Act
	err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

	// Assert
	if err != nil {
		t.Fatalf("code is valid up to and including expires_at: %v", err)
	}
}

// innerHash names the embedded hasher so its Hash method stays promoted.
type innerHash = hash.Hash

// slowHash advances the clock while comparing, like a costly hash would.
type slowHash struct {
	innerHash
	clock *clock.Fixed
	took  time.Duration
}

func (h slowHash) Verify(hashed, str string) bool {
	h.clock.Advance(h.took)
	return h.innerHash.Verify(hashed, str)
}

func TestVerify_ExpiresDuringCompare(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@example.com")
	f.clock.Advance(entity.TTL - time.Millisecond)
	f.uc.hash = slowHash{innerHash: f.hash, clock: f.clock, took: 100 * time.Millisecond}

	// Act
	err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

	// Assert
	assertBusiness(t, err, goerror.CodeBadRequest, msgExpired)
	if f.repo.otps[0].IsVerified {
		t.Fatal("a record past expires_at must never be verified")
	}
	if n := countLogs(f.repo.logs, entity.EndpointVerify, entity.UsageStatusSuccess); n != 0 {
		t.Fatalf("success logs = %d, want 0", n)
	}
}

func TestVerify_MismatchCountsAttempts(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@example.com")
	ctx := context.Background()
	in := VerifyInput{UserID: 1, Email: "a@example.com", Code: wrongCode(code)}

	// Act
	for i := range entity.MaxAttempts {
		err := f.uc.Verify(ctx, in)
		assertBusiness(t, err, goerror.CodeBadRequest, msgInvalidCode)
		if got := f.repo.otps[0].Attempts; int(got) != i+1 {
			t.Fatalf("attempts = %d, want %d", got, i+1)
		}
	}
	err := f.uc.Verify(ctx, VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

	// Assert
	assertBusiness(t, err, goerror.CodeBadRequest, msgTooManyAttempts)
	if f.repo.otps[0].Attempts != entity.MaxAttempts {
		t.Fatalf("attempts must stop at %d", entity.MaxAttempts)
	}
	if f.repo.otps[0].IsVerified {
		t.Fatal("exhausted record must never verify")
	}
	if n := countLogs(f.repo.logs, entity.EndpointVerify, entity.UsageStatusFailed); n != entity.MaxAttempts {
		t.Fatalf("failed logs = %d, want %d", n, entity.MaxAttempts)
	}
}

func TestVerify_UsesLatestRecord(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	codes := []string{"111111", "222222"}
	f.uc.genCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	oldCode := issue(t, f, "a@example.com")
	f.clock.Advance(time.Second)
	newCode := issue(t, f, "a@example.com")
	ctx := context.Background()

	// Act
	errOld := f.uc.Verify(ctx, VerifyInput{UserID: 1, Email: "a@example.com", Code: oldCode})
	errNew := f.uc.Verify(ctx, VerifyInput{UserID: 1, Email: "a@example.com", Code: newCode})

	// Assert
	assertBusiness(t, errOld, goerror.CodeBadRequest, msgInvalidCode)
	if errNew != nil {
		t.Fatalf("latest code must verify: %v", errNew)
	}
	if f.repo.otps[0].Attempts != 0 || f.repo.otps[0].IsVerified {
		t.Fatalf("older record must stay untouched: %+v", f.repo.otps[0])
	}
	if f.repo.otps[1].Attempts != 1 || !f.repo.otps[1].IsVerified {
		t.Fatalf("latest record state: %+v", f.repo.otps[1])
	}
}

func TestVerify_DomainCaseInsensitive(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@EXAMPLE.com")

	// Act
	err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})

	// Assert
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if f.repo.otps[0].Email != "a@example.com" {
		t.Fatalf("stored email = %q", f.repo.otps[0].Email)
	}
}

func TestVerify_RejectionLogging(t *testing.T) {
	tests := []struct {
		name     string
		cfg      string
		wantLogs int
	}{
		{name: "default skips", cfg: "", wantLogs: 0},
		{name: "enabled logs", cfg: "modules:\n  otp:\n    log_rejections: true\n", wantLogs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, tt.cfg)

			// Act
			err := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: "123456"})

			// Assert
			assertBusiness(t, err, goerror.CodeBadRequest, msgNoActiveOTP)
			if n := countLogs(f.repo.logs, entity.EndpointVerify, entity.UsageStatusFailed); n != tt.wantLogs {
				t.Fatalf("failed logs = %d, want %d", n, tt.wantLogs)
			}
		})
	}
}

func TestVerify_GenericRejections(t *testing.T) {
	// Arrange
	f := newFixture(t, "modules:\n  otp:\n    generic_rejections: true\n")
	code := issue(t, f, "a@example.com")
	f.clock.Advance(time.Hour)

	// Act
	errExpired := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})
	errMissing := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "b@example.com", Code: code})

	// Assert
	assertBusiness(t, errExpired, goerror.CodeBadRequest, msgInvalidCode)
	assertBusiness(t, errMissing, goerror.CodeBadRequest, msgInvalidCode)
}

func TestVerify_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   VerifyInput
		keys []string
	}{
		{name: "bad email", in: VerifyInput{UserID: 1, Email: "x", Code: "123456"}, keys: []string{"email"}},
		{name: "short code", in: VerifyInput{UserID: 1, Email: "a@example.com", Code: "123"}, keys: []string{"otp"}},
		{name: "letters", in: VerifyInput{UserID: 1, Email: "a@example.com", Code: "12345a"}, keys: []string{"otp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, "")

			// Act
			err := f.uc.Verify(context.Background(), tt.in)

			// Assert
			assertBusiness(t, err, goerror.CodeInvalidInput, "")
			var verr validator.V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			for _, k := range tt.keys {
				if _, ok := verr.Values()[k]; !ok {
					t.Fatalf("missing field %q in %v", k, verr.Values())
				}
			}
		})
	}
}

func TestVerify_StoreFailure(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	code := issue(t, f, "a@example.com")
	f.repo.updateErr = errors.New("db down")

	// Act
	errMatch := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: code})
	errMismatch := f.uc.Verify(context.Background(), VerifyInput{UserID: 1, Email: "a@example.com", Code: wrongCode(code)})

	// Assert
	for _, err := range []error{errMatch, errMismatch} {
		gerr, ok := goerror.As(err)
		if !ok || gerr.Type() != goerror.TypeServer {
			t.Fatalf("expected server error, got %v", err)
		}
	}
	if slices.ContainsFunc(f.repo.otps, func(o entity.OTP) bool { return o.IsVerified }) {
		t.Fatal("nothing verified on failure")
	}
}
