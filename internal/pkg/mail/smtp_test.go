package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSMTP_RequiresHostPort(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
}

func TestSMTP_SendValidatesBeforeDial(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	// Act
	errNoSender := s.Send(context.Background(), Message{To: []string{"a@x.com"}})
	s.cfg.From = "no-reply@otpify.test"
	errNoRcpt := s.Send(context.Background(), Message{})

	// Assert
	if !errors.Is(errNoSender, ErrSMTPNoSender) {
		t.Fatalf("expected ErrSMTPNoSender, got %v", errNoSender)
	}
	if !errors.Is(errNoRcpt, ErrSMTPNoRecipients) {
		t.Fatalf("expected ErrSMTPNoRecipients, got %v", errNoRcpt)
	}
}

func TestBuildMessage_Multipart(t *testing.T) {
	// Act
	raw := string(buildMessage("no-reply@otpify.test", Message{
		To:       []string{"a@x.com"},
		Subject:  "Your verification code",
		TextBody: "code 012345",
		HTMLBody: "<b>012345</b>",
	}))

	// Assert
	for _, want := range []string{
		"From: no-reply@otpify.test\r\n",
		"To: a@x.com\r\n",
		"multipart/alternative; boundary=otpify-",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message:\n%s", want, raw)
		}
	}
}

func TestBuildBody_TextOnly(t *testing.T) {
	body, ct := buildBody(Message{TextBody: "hello"})

	if body != "hello" || ct != "text/plain; charset=UTF-8" {
		t.Fatalf("unexpected body %q content type %q", body, ct)
	}
}
