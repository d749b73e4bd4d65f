// Package dispatch hands issued codes to email delivery without blocking the
// issuing request.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

const defaultDeliveryTimeout = 30 * time.Second

// Mailer sends the code email. The notification module provides it.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, expiresAt time.Time) error
}

// Async sends the email on the shared goroutine manager. The task keeps the
// request values (correlation id, trace) but not its cancellation.
type Async struct {
	routine *goroutine.Manager
	mailer  Mailer
	timeout time.Duration
	ins     instrument.Instrumentation
}

func NewAsync(routine *goroutine.Manager, mailer Mailer, timeout time.Duration, ins instrument.Instrumentation) *Async {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Async{routine: routine, mailer: mailer, timeout: timeout, ins: ins}
}

// Dispatch schedules the delivery and returns at once. It fails only when
// the task cannot be scheduled.
func (a *Async) Dispatch(ctx context.Context, d entity.Delivery) error {
	return a.routine.TryGo(context.WithoutCancel(ctx), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		ctx, span := a.ins.Tracer("otp.outbound.dispatch").Start(ctx, "Deliver")
		defer span.End()

		if err := a.mailer.SendOTP(ctx, d.Email, d.Code, d.ExpiresAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "failed to deliver otp email", "email", d.Email, "user_id", d.UserID, "error", err)
		}

		return nil
	})
}
