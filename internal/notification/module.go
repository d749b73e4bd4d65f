package notification

import (
	"context"

	"github.com/shandysiswandi/otpify/internal/notification/inbound"
	"github.com/shandysiswandi/otpify/internal/notification/outbound/email"
	"github.com/shandysiswandi/otpify/internal/notification/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Sealer     sealer.Sealer              `validate:"required"`
}

// New starts the enabled broker consumers and returns the mailer used by
// the otp and account modules for direct delivery.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc, err := usecase.New(usecase.Dependency{
		RepoMail:   email.New(dep.Mail, dep.Instrument),
		Config:     dep.Config,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return nil, err
	}

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, dep.Sealer, uc, dep.Instrument)
	}

	return uc, nil
}
