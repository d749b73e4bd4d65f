package account

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpify/internal/account/inbound"
	"github.com/shandysiswandi/otpify/internal/account/outbound/cache"
	"github.com/shandysiswandi/otpify/internal/account/outbound/db"
	"github.com/shandysiswandi/otpify/internal/account/outbound/dispatch"
	"github.com/shandysiswandi/otpify/internal/account/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
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
var ErrMailerRequired = errors.New("account: async delivery requires a mailer")

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   *redis.Client              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Passwords   hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
	Sealer      sealer.Sealer              `validate:"required"`
	Mailer      dispatch.Mailer
}

// New registers the account endpoints and installs the API key resolver
// used by the OTP endpoints.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:   cache.New(dep.CacheConn, dep.Instrument),
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Passwords:   dep.Passwords,
		HMAC:        dep.HMAC,
		UID:         dep.UID,
		Clock:       dep.Clock,
		JWT:         dep.JWT,
		Instrument:  dep.Instrument,
	}

	resetURL := dep.Config.GetString("modules.account.reset_url")
	switch dep.Config.GetString("modules.account.delivery") {
	case DeliveryBroker:
		ucDep.RepoDispatch = dispatch.NewBroker(dep.Messaging, dep.Sealer, resetURL, dep.Instrument)
	default:
		if dep.Mailer == nil {
			return ErrMailerRequired
		}
		ucDep.RepoDispatch = dispatch.NewAsync(dep.Goroutine, dep.Mailer, resetURL,
			dep.Config.GetSecond("modules.account.delivery_timeout_seconds"), dep.Instrument)
	}

	uc := usecase.New(ucDep)

	dep.Router.SetAPIKeyResolver(inbound.NewAPIKeyResolver(uc))
	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
