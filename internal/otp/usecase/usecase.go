package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateOTP(ctx context.Context, otp entity.OTP, log entity.UsageLog) error
	GetLatestUnverifiedOTP(ctx context.Context, email string) (*entity.OTP, error)
	IncrementOTPAttempts(ctx context.Context, id string, log entity.UsageLog) (bool, error)
	MarkOTPVerified(ctx context.Context, id string, now time.Time, log entity.UsageLog) (bool, error)
	CreateUsageLog(ctx context.Context, log entity.UsageLog) error
}

type limiter interface {
	// Allow reports whether email may receive another code and, when not,
	// how long the caller should wait.
	Allow(ctx context.Context, email string) (bool, time.Duration, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, d entity.Delivery) error
}

type Usecase struct {
	repoDB     repoDB
	limiter    limiter
	dispatcher dispatcher
	cfg        config.Config
	hash       hash.Hash
	uuid       uid.StringID
	uid        uid.NumberID
	clock      clock.Clocker
	validator  validator.Validator
	ins        instrument.Instrumentation
	genCode    func() (string, error)
}

type Dependency struct {
	RepoDB     repoDB
	Limiter    limiter
	Dispatcher dispatcher
	Config     config.Config
	Hash       hash.Hash
	UUID       uid.StringID
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:     dep.RepoDB,
		limiter:    dep.Limiter,
		dispatcher: dep.Dispatcher,
		cfg:        dep.Config,
		hash:       dep.Hash,
		uuid:       dep.UUID,
		uid:        dep.UID,
		clock:      dep.Clock,
		validator:  dep.Validator,
		ins:        dep.Instrument,
		genCode:    generateCode,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) usageLog(userID int64, endpoint string, status entity.UsageStatus, startedAt time.Time) entity.UsageLog {
	now := s.clock.Now()
	return entity.UsageLog{
		ID:             s.uid.Generate(),
		UserID:         userID,
		Endpoint:       endpoint,
		Status:         status,
		ResponseTimeMS: float64(now.Sub(startedAt).Microseconds()) / 1000,
		Timestamp:      now,
	}
}
