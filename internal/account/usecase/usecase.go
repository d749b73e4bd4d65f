package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type PasswordResetEvent struct {
	UserID   int64
	Email    string
	FullName string
	Token    string
}

type repoDB interface {
	CreateUser(ctx context.Context, user entity.User) error
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByAPIKey(ctx context.Context, key string) (*entity.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*entity.User, error)
	UpdateAPIKey(ctx context.Context, id int64, oldKey, newKey string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id int64, tokenHash string) error
	ResetPassword(ctx context.Context, id int64, tokenHash, passwordHash string) (bool, error)
}

type repoCache interface {
	GetAPIKeyOwner(ctx context.Context, key string) (*entity.APIKeyOwner, error)
	SetAPIKeyOwner(ctx context.Context, key string, owner entity.APIKeyOwner, ttl time.Duration) error
	DeleteAPIKeyOwner(ctx context.Context, key string) error
}

type repoDispatch interface {
	DispatchPasswordReset(ctx context.Context, ev PasswordResetEvent) error
}

type Usecase struct {
	repoDB       repoDB
	repoCache    repoCache
	repoDispatch repoDispatch
	idemp        idempotency.Idempotency
	validator    validator.Validator
	cfg          config.Config
	passwords    hash.Hash
	hmac         hash.Hash
	uid          uid.NumberID
	clock        clock.Clocker
	jwt          jwt.JWT
	ins          instrument.Instrumentation
	genToken     func() (string, error)
}

type Dependency struct {
	RepoDB       repoDB
	RepoCache    repoCache
	RepoDispatch repoDispatch
	Idempotency  idempotency.Idempotency
	Validator    validator.Validator
	Config       config.Config
	Passwords    hash.Hash
	HMAC         hash.Hash
	UID          uid.NumberID
	Clock        clock.Clocker
	JWT          jwt.JWT
	Instrument   instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:       dep.RepoDB,
		repoCache:    dep.RepoCache,
		repoDispatch: dep.RepoDispatch,
		idemp:        dep.Idempotency,
		validator:    dep.Validator,
		cfg:          dep.Config,
		passwords:    dep.Passwords,
		hmac:         dep.HMAC,
		uid:          dep.UID,
		clock:        dep.Clock,
		jwt:          dep.JWT,
		ins:          dep.Instrument,
		genToken:     randomToken,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}

// once runs fn guarded by the client's idempotency key. Without a key fn
// runs unguarded.
func (s *Usecase) once(ctx context.Context, scope, key string, fn func(context.Context) error) error {
	if key == "" || s.idemp == nil {
		return fn(ctx)
	}

	var opts []idempotency.Option
	if ttl := s.cfg.GetHour("modules.account.idempotency_ttl_hours"); ttl > 0 {
		opts = append(opts, idempotency.WithStateTTL(ttl))
	}

	err := s.idemp.Exec(ctx, scope, key, fn, opts...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("Request is already being processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return goerror.NewBusiness("Request has already been processed", goerror.CodeConflict)
	}

	if _, ok := goerror.As(err); ok {
		return err
	}

	slog.ErrorContext(ctx, "failed to exec idempotent request", "scope", scope, "error", err)
	return goerror.NewServer(err)
}

func (s *Usecase) currentUser(ctx context.Context) (*entity.User, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !user.IsActive {
		return nil, goerror.NewBusiness("Inactive user", goerror.CodeForbidden)
	}

	return user, nil
}
