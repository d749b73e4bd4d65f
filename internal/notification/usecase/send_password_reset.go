package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpify/internal/notification/entity"
)

type passwordResetData struct {
	AppName  string
	FullName string
	Link     string
}

// SendPasswordReset emails the reset link.
func (s *Usecase) SendPasswordReset(ctx context.Context, email, fullName, link string) error {
	ctx, span := s.startSpan(ctx, "SendPasswordReset")
	defer span.End()

	text, html, err := s.tpl.render(entity.KindPasswordReset, passwordResetData{
		AppName:  s.appName,
		FullName: fullName,
		Link:     link,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render password reset email", "error", err)
		return err
	}

	if err := s.deliver(ctx, entity.Email{
		Kind:    entity.KindPasswordReset,
		To:      email,
		Subject: "Reset your password",
		Text:    text,
		HTML:    html,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver password reset email", "email", email, "error", err)
		return err
	}

	return nil
}
