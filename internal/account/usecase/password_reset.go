package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const msgInvalidResetToken = "Invalid or expired reset token"

type PasswordResetInput struct {
	Token          string `validate:"required,max=128"`
	NewPassword    string `json:"new_password" validate:"required,password"`
	IdempotencyKey string `json:"-"`
}

func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	in.Token = strings.TrimSpace(in.Token)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.once(ctx, "account.password_reset", in.IdempotencyKey, func(ctx context.Context) error {
		tokenHash, err := s.hmac.Hash(in.Token)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
			return goerror.NewServer(err)
		}

		user, err := s.repoDB.GetUserByResetToken(ctx, string(tokenHash))
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "unknown reset token used")
			return goerror.NewBusiness(msgInvalidResetToken, goerror.CodeBadRequest)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get user by reset token", "error", err)
			return goerror.NewServer(err)
		}

		if !user.ResetTokenValid(s.clock.Now()) {
			slog.WarnContext(ctx, "expired reset token used", "user_id", user.ID)
			if err := s.repoDB.ClearResetToken(ctx, user.ID, string(tokenHash)); err != nil {
				slog.ErrorContext(ctx, "failed to repo clear reset token", "user_id", user.ID, "error", err)
			}
			return goerror.NewBusiness("Reset token has expired. Please request a new one.", goerror.CodeBadRequest)
		}

		passwordHash, err := s.passwords.Hash(in.NewPassword)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash password", "error", err)
			return goerror.NewServer(err)
		}

		ok, err := s.repoDB.ResetPassword(ctx, user.ID, string(tokenHash), string(passwordHash))
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo reset password", "user_id", user.ID, "error", err)
			return goerror.NewServer(err)
		}
		if !ok {
			slog.WarnContext(ctx, "reset token consumed concurrently", "user_id", user.ID)
			return goerror.NewBusiness(msgInvalidResetToken, goerror.CodeBadRequest)
		}

		return nil
	})
}
