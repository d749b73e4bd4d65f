package otp

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpify/internal/otp/inbound"
	"github.com/shandysiswandi/otpify/internal/otp/outbound/db"
	"github.com/shandysiswandi/otpify/internal/otp/outbound/dispatch"
	"github.com/shandysiswandi/otpify/internal/otp/outbound/limiter"
	"github.com/shandysiswandi/otpify/internal/otp/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

const (
	DeliveryAsync  = "async"
	DeliveryBroker = "broker"
)

// ErrMailerRequired is returned when async delivery is selected without a mailer.
var ErrMailerRequired = errors.New("otp: async delivery requires a mailer")

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
	Sealer     sealer.Sealer              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mailer     dispatch.Mailer
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Config:     dep.Config,
		Hash:       dep.Hash,
		UUID:       dep.UUID,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	}

	switch dep.Config.GetString("modules.otp.delivery") {
	case DeliveryBroker:
		ucDep.Dispatcher = dispatch.NewBroker(dep.Messaging, dep.Sealer, dep.Instrument)
	default:
		if dep.Mailer == nil {
			return ErrMailerRequired
		}
		ucDep.Dispatcher = dispatch.NewAsync(dep.Goroutine, dep.Mailer,
			dep.Config.GetSecond("modules.otp.delivery_timeout_seconds"), dep.Instrument)
	}

	if dep.Config.GetBool("modules.otp.limit.enabled") {
		ucDep.Limiter = limiter.New(dep.CacheConn, limiter.Config{
			Cooldown:     dep.Config.GetSecond("modules.otp.limit.cooldown_seconds"),
			MaxPerWindow: dep.Config.GetInt64("modules.otp.limit.max_per_window"),
			Window:       dep.Config.GetSecond("modules.otp.limit.window_seconds"),
			Block:        dep.Config.GetSecond("modules.otp.limit.block_seconds"),
		}, dep.Instrument)
	}

	inbound.RegisterHTTPEndpoint(dep.Router, usecase.New(ucDep))

	return nil
}
