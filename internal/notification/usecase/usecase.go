package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpify/internal/notification/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxRetries = 3
	retryBase         = 500 * time.Millisecond
	retryCap          = 5 * time.Second
)

type repoMail interface {
	Send(ctx context.Context, e entity.Email) error
}

type Usecase struct {
	repoMail   repoMail
	clock      clock.Clocker
	ins        instrument.Instrumentation
	tpl        *templates
	appName    string
	maxRetries uint64
	retryBase  time.Duration
}

type Dependency struct {
	RepoMail   repoMail
	Config     config.Config
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) (*Usecase, error) {
	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	maxRetries := dep.Config.GetInt("modules.notification.max_retries")
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Usecase{
		repoMail:   dep.RepoMail,
		clock:      dep.Clock,
		ins:        dep.Instrument,
		tpl:        tpl,
		appName:    dep.Config.GetString("app.name"),
		maxRetries: uint64(maxRetries),
		retryBase:  retryBase,
	}, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// deliver sends e with capped exponential backoff. Misconfiguration errors
// are not retried.
func (s *Usecase) deliver(ctx context.Context, e entity.Email) error {
	b := retry.NewExponential(s.retryBase)
	b = retry.WithCappedDuration(retryCap, b)
	b = retry.WithMaxRetries(s.maxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		err := s.repoMail.Send(ctx, e)
		if err == nil {
			return nil
		}

		if errors.Is(err, mail.ErrSMTPNoRecipients) || errors.Is(err, mail.ErrSMTPNoSender) {
			return err
		}

		slog.WarnContext(ctx, "failed to send email, will retry", "kind", e.Kind.String(), "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}
