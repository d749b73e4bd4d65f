package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

type IssueInput struct {
	UserID int64  `validate:"required,gt=0"`
	Email  string `validate:"required,email,max=254"`
}

type IssueOutput struct {
	ID        string
	ExpiresAt int64
}

func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	startedAt := s.clock.Now()
	in.Email = entity.NormalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if s.limiter != nil {
		allowed, wait, err := s.limiter.Allow(ctx, in.Email)
		if err != nil {
			slog.WarnContext(ctx, "failed to check otp issuance limit", "email", in.Email, "error", err)
		} else if !allowed {
			slog.WarnContext(ctx, "otp issuance limited", "email", in.Email, "user_id", in.UserID, "retry_after", wait.String())
			return nil, goerror.NewBusiness("Too many OTP requests, please try again later", goerror.CodeTooManyRequest)
		}
	}

	code, err := s.genCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hash.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	otp := entity.OTP{
		ID:        s.uuid.Generate(),
		UserID:    in.UserID,
		Email:     in.Email,
		CodeHash:  string(codeHash),
		ExpiresAt: now.Add(entity.TTL),
		CreatedAt: now,
	}

	usage := s.usageLog(in.UserID, entity.EndpointSend, entity.UsageStatusSuccess, startedAt)
	if err := s.repoDB.CreateOTP(ctx, otp, usage); err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp", "email", in.Email, "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.dispatcher.Dispatch(ctx, entity.Delivery{
		UserID:    in.UserID,
		Email:     otp.Email,
		Code:      code,
		ExpiresAt: otp.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch otp delivery", "otp_id", otp.ID, "email", otp.Email, "error", err)
	}

	return &IssueOutput{ID: otp.ID, ExpiresAt: otp.ExpiresAt.Unix()}, nil
}
