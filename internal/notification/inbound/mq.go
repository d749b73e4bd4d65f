package inbound

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/shared/event"
)

type uc interface {
	SendOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, email, fullName, link string) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	seal sealer.Sealer,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, sealer: seal, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string // also the consumer group
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.OTPIssuedConsumerNotification,
			topic:   event.OTPIssuedDestination,
			handler: mqHandler.OTPIssuedNotification,
		},
		{
			name:    event.PasswordResetConsumerNotification,
			topic:   event.PasswordResetDestination,
			handler: mqHandler.PasswordResetNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			err := messenger.Subscribe(pCtx, consumer.topic, consumer.name, consumer.handler)
			if err != nil && pCtx.Err() == nil {
				slog.ErrorContext(pCtx, "consumer stopped", "consumer", consumer.name, "error", err)
				return err
			}
			return nil
		})
	}
}
