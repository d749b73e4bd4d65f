package dispatch

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpify/internal/account/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Broker publishes the sealed reset link; the notification consumer opens
// and sends it.
type Broker struct {
	client   messaging.Messaging
	sealer   sealer.Sealer
	resetURL string
	ins      instrument.Instrumentation
}

func NewBroker(client messaging.Messaging, s sealer.Sealer, resetURL string, ins instrument.Instrumentation) *Broker {
	return &Broker{client: client, sealer: s, resetURL: resetURL, ins: ins}
}

func (b *Broker) DispatchPasswordReset(ctx context.Context, ev usecase.PasswordResetEvent) error {
	ctx, span := b.ins.Tracer("account.outbound.dispatch").Start(ctx, "PublishPasswordReset")
	defer span.End()

	sealed, err := b.sealer.Seal([]byte(ResetLink(b.resetURL, ev.Token)), event.ResetLinkAAD(ev.Email))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := json.Marshal(event.PasswordResetMessage{
		UserID:     ev.UserID,
		Email:      ev.Email,
		FullName:   ev.FullName,
		SealedLink: sealed,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := b.client.Publish(ctx, event.PasswordResetDestination, messaging.Message{
		Key:     []byte(ev.Email),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
