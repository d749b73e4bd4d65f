package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/otpify/internal/notification/entity"
)

type otpData struct {
	AppName   string
	Code      string
	Minutes   int
	ExpiresAt string
}

// SendOTP emails a verification code.
func (s *Usecase) SendOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	minutes := int(math.Ceil(expiresAt.Sub(s.clock.Now()).Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	text, html, err := s.tpl.render(entity.KindOTP, otpData{
		AppName:   s.appName,
		Code:      code,
		Minutes:   minutes,
		ExpiresAt: expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "error", err)
		return err
	}

	if err := s.deliver(ctx, entity.Email{
		Kind:    entity.KindOTP,
		To:      email,
		Subject: "Your verification code",
		Text:    text,
		HTML:    html,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp email", "email", email, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp email sent", "email", email)
	return nil
}
