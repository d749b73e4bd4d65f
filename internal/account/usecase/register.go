package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

type RegisterInput struct {
	Email          string `validate:"required,email,max=254"`
	Password       string `validate:"required,password"`
	FullName       string `json:"full_name" validate:"omitempty,max=100"`
	IdempotencyKey string `json:"-"`
}

type UserOutput struct {
	ID        int64
	Email     string
	FullName  string
	APIKey    string
	IsActive  bool
	CreatedAt int64
}

func toUserOutput(u *entity.User) *UserOutput {
	return &UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		APIKey:    u.APIKey,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Unix(),
	}
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*UserOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var out *UserOutput
	err := s.once(ctx, "account.register", in.IdempotencyKey, func(ctx context.Context) error {
		_, err := s.repoDB.GetUserByEmail(ctx, in.Email)
		if err == nil {
			return goerror.NewBusiness("The user with this email already exists in the system", goerror.CodeConflict)
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
			return goerror.NewServer(err)
		}

		passwordHash, err := s.passwords.Hash(in.Password)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash password", "error", err)
			return goerror.NewServer(err)
		}

		apiKey, err := s.newAPIKey()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate api key", "error", err)
			return goerror.NewServer(err)
		}

		user := entity.User{
			ID:           s.uid.Generate(),
			Email:        in.Email,
			FullName:     in.FullName,
			PasswordHash: string(passwordHash),
			APIKey:       apiKey,
			IsActive:     true,
			CreatedAt:    s.clock.Now(),
		}

		err = s.repoDB.CreateUser(ctx, user)
		if errors.Is(err, goerror.ErrConflict) {
			return goerror.NewBusiness("The user with this email already exists in the system", goerror.CodeConflict)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
			return goerror.NewServer(err)
		}

		out = toUserOutput(&user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
