package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/notification/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
)

var t0 = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

type fakeMail struct {
	sent  []entity.Email
	fails int
	err   error
}

func (f *fakeMail) Send(_ context.Context, e entity.Email) error {
	if f.fails > 0 {
		f.fails--
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func newUsecase(t *testing.T, repo repoMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  name: Otpify
modules:
  notification:
    max_retries: 2
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	uc, err := New(Dependency{
		RepoMail:   repo,
		Config:     cfg,
		Clock:      clock.NewFixed(t0),
		Instrument: instrument.NewNoop(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	uc.retryBase = time.Millisecond
	return uc
}

func TestSendOTP(t *testing.T) {
	// Arrange
	repo := &fakeMail{}
	uc := newUsecase(t, repo)

	// Act
	err := uc.SendOTP(context.Background(), "a@example.com", "012345", t0.Add(5*time.Minute))

	// Assert
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(repo.sent) != 1 {
		t.Fatalf("sent %d emails", len(repo.sent))
	}
	e := repo.sent[0]
	if e.Kind != entity.KindOTP || e.To != "a@example.com" || e.Subject == "" {
		t.Fatalf("email = %+v", e)
	}
	for _, body := range []string{e.Text, e.HTML} {
		if !strings.Contains(body, "012345") || !strings.Contains(body, "5 minutes") || !strings.Contains(body, "Otpify") {
			t.Fatalf("body missing data: %q", body)
		}
	}
}

func TestSendPasswordReset_EscapesHTML(t *testing.T) {
	// Arrange
	repo := &fakeMail{}
	uc := newUsecase(t, repo)

	// Act
	err := uc.SendPasswordReset(context.Background(), "a@example.com", "<b>Jane</b>", "http://app/reset-password?token=abc")

	// Assert
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	e := repo.sent[0]
	if strings.Contains(e.HTML, "<b>Jane</b>") {
		t.Fatalf("html body not escaped: %q", e.HTML)
	}
	if !strings.Contains(e.Text, "Hello <b>Jane</b>") || !strings.Contains(e.Text, "token=abc") {
		t.Fatalf("text body = %q", e.Text)
	}
}

func TestDeliver_Retries(t *testing.T) {
	tests := []struct {
		name      string
		fails     int
		err       error
		wantErr   bool
		wantCalls int
	}{
		{name: "recovers", fails: 2, err: errors.New("421 try later"), wantCalls: 1},
		{name: "gives up", fails: 5, err: errors.New("421 try later"), wantErr: true},
		{name: "no retry on misconfiguration", fails: 1, err: mail.ErrSMTPNoSender, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo := &fakeMail{fails: tt.fails, err: tt.err}
			uc := newUsecase(t, repo)

			// Act
			err := uc.deliver(context.Background(), entity.Email{Kind: entity.KindOTP, To: "a@example.com"})

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(repo.sent) != tt.wantCalls {
				t.Fatalf("sent = %d", len(repo.sent))
			}
			if tt.name == "gives up" && repo.fails != 2 {
				t.Fatalf("expected 1 try + 2 retries, %d failures left", repo.fails)
			}
			if tt.name == "no retry on misconfiguration" && repo.fails != 0 {
				t.Fatalf("expected a single attempt")
			}
		})
	}
}
