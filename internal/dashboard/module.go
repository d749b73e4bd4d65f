package dashboard

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpify/internal/dashboard/inbound"
	"github.com/shandysiswandi/otpify/internal/dashboard/outbound/db"
	"github.com/shandysiswandi/otpify/internal/dashboard/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Storage:    dep.Storage,
		Config:     dep.Config,
		Clock:      dep.Clock,
		UUID:       dep.UUID,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
