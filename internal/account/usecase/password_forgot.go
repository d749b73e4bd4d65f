package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const defaultResetTokenTTL = time.Hour

type PasswordForgotInput struct {
	Email          string `validate:"required,email"`
	IdempotencyKey string `json:"-"`
}

// PasswordForgot answers the same way whether the address is known or not.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) error {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.once(ctx, "account.password_forgot", in.IdempotencyKey, func(ctx context.Context) error {
		user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "password reset requested for unavailable user", "email", in.Email)
			return nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
			return goerror.NewServer(err)
		}

		token, err := s.genToken()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate reset token", "error", err)
			return goerror.NewServer(err)
		}

		tokenHash, err := s.hmac.Hash(token)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
			return goerror.NewServer(err)
		}

		ttl := s.cfg.GetMinute("modules.account.reset_token_ttl_minutes")
		if ttl <= 0 {
			ttl = defaultResetTokenTTL
		}

		if err := s.repoDB.SetResetToken(ctx, user.ID, string(tokenHash), s.clock.Now().Add(ttl)); err != nil {
			slog.ErrorContext(ctx, "failed to repo set reset token", "user_id", user.ID, "error", err)
			return goerror.NewServer(err)
		}

		if err := s.repoDispatch.DispatchPasswordReset(ctx, PasswordResetEvent{
			UserID:   user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Token:    token,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to dispatch password reset", "user_id", user.ID, "error", err)
		}

		return nil
	})
}
