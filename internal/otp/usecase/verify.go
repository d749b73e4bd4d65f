package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const (
	msgNoActiveOTP     = "No active OTP found for this email"
	msgTooManyAttempts = "Too many attempts. Request a new OTP."
	msgExpired         = "OTP expired"
	msgInvalidCode     = "Invalid OTP"
)

type VerifyInput struct {
	UserID int64  `validate:"required,gt=0"`
	Email  string `validate:"required,email,max=254"`
	Code   string `json:"otp" validate:"required,len=6,numeric"`
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	startedAt := s.clock.Now()
	in.Email = entity.NormalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	otp, err := s.repoDB.GetLatestUnverifiedOTP(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active otp for email", "email", in.Email, "user_id", in.UserID)
		s.logRejection(ctx, in.UserID, startedAt)
		return s.reject(msgNoActiveOTP)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest unverified otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if otp.AttemptsExhausted() {
		slog.WarnContext(ctx, "otp attempts exhausted", "otp_id", otp.ID, "attempts", otp.Attempts)
		s.logRejection(ctx, in.UserID, startedAt)
		return s.reject(msgTooManyAttempts)
	}

	if otp.IsExpired(s.clock.Now()) {
		slog.WarnContext(ctx, "otp expired", "otp_id", otp.ID, "expires_at", otp.ExpiresAt)
		s.logRejection(ctx, in.UserID, startedAt)
		return s.reject(msgExpired)
	}

	if !s.hash.Verify(otp.CodeHash, in.Code) {
		usage := s.usageLog(in.UserID, entity.EndpointVerify, entity.UsageStatusFailed, startedAt)
		applied, err := s.repoDB.IncrementOTPAttempts(ctx, otp.ID, usage)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo increment otp attempts", "otp_id", otp.ID, "error", err)
			return goerror.NewServer(err)
		}
		if !applied {
			slog.WarnContext(ctx, "otp changed before attempts increment", "otp_id", otp.ID)
		}
		return s.reject(msgInvalidCode)
	}

	// The compare can outlive the expiry check, so the store re-checks
	// expiry at the moment of the write.
	now := s.clock.Now()
	usage := s.usageLog(in.UserID, entity.EndpointVerify, entity.UsageStatusSuccess, startedAt)
	verified, err := s.repoDB.MarkOTPVerified(ctx, otp.ID, now, usage)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark otp verified", "otp_id", otp.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !verified {
		if otp.IsExpired(now) {
			slog.WarnContext(ctx, "otp expired during verification", "otp_id", otp.ID, "expires_at", otp.ExpiresAt)
			s.logRejection(ctx, in.UserID, startedAt)
			return s.reject(msgExpired)
		}
		slog.WarnContext(ctx, "otp verified or exhausted concurrently", "otp_id", otp.ID)
		return s.reject(msgNoActiveOTP)
	}

	return nil
}

// reject builds the 400 returned for every verification rejection. With
// generic rejections on, callers cannot tell the reasons apart.
func (s *Usecase) reject(msg string) error {
	if s.cfg.GetBool("modules.otp.generic_rejections") {
		msg = msgInvalidCode
	}
	return goerror.NewBusiness(msg, goerror.CodeBadRequest)
}

func (s *Usecase) logRejection(ctx context.Context, userID int64, startedAt time.Time) {
	if !s.cfg.GetBool("modules.otp.log_rejections") {
		return
	}

	usage := s.usageLog(userID, entity.EndpointVerify, entity.UsageStatusFailed, startedAt)
	if err := s.repoDB.CreateUsageLog(ctx, usage); err != nil {
		slog.ErrorContext(ctx, "failed to repo create usage log", "user_id", userID, "error", err)
	}
}
