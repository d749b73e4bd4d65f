package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetSummary(ctx context.Context, userID int64) (entity.Summary, error)
	CountActiveUsers(ctx context.Context) (int64, error)
	CountDaily(ctx context.Context, userID int64, since time.Time) ([]entity.DayCount, error)
	ListLogs(ctx context.Context, userID int64, limit int32) ([]entity.LogEntry, error)
	EachLog(ctx context.Context, userID int64, fn func(entity.LogEntry) error) error
}

type Usecase struct {
	repoDB  repoDB
	storage storage.Storage
	cfg     config.Config
	clock   clock.Clocker
	uuid    uid.StringID
	ins     instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Storage    storage.Storage
	Config     config.Config
	Clock      clock.Clocker
	UUID       uid.StringID
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:  dep.RepoDB,
		storage: dep.Storage,
		cfg:     dep.Config,
		clock:   dep.Clock,
		uuid:    dep.UUID,
		ins:     dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("dashboard.usecase").Start(ctx, name)
}

func callerID(ctx context.Context) (int64, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return 0, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm.UserID, nil
}
