// Package dispatch delivers password reset links, either directly on the
// goroutine manager or through the message broker.
package dispatch

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/shandysiswandi/otpify/internal/account/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

const defaultDeliveryTimeout = 30 * time.Second

// Mailer sends the reset email. The notification module provides it.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, fullName, link string) error
}

// ResetLink appends the token to the frontend reset page.
func ResetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String()
}

type Async struct {
	routine  *goroutine.Manager
	mailer   Mailer
	resetURL string
	timeout  time.Duration
	ins      instrument.Instrumentation
}

func NewAsync(routine *goroutine.Manager, mailer Mailer, resetURL string, timeout time.Duration, ins instrument.Instrumentation) *Async {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Async{routine: routine, mailer: mailer, resetURL: resetURL, timeout: timeout, ins: ins}
}

func (a *Async) DispatchPasswordReset(ctx context.Context, ev usecase.PasswordResetEvent) error {
	link := ResetLink(a.resetURL, ev.Token)

	return a.routine.TryGo(context.WithoutCancel(ctx), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		ctx, span := a.ins.Tracer("account.outbound.dispatch").Start(ctx, "DeliverPasswordReset")
		defer span.End()

		if err := a.mailer.SendPasswordReset(ctx, ev.Email, ev.FullName, link); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "failed to deliver password reset email", "user_id", ev.UserID, "error", err)
		}

		return nil
	})
}
