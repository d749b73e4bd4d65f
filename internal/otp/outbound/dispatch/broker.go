package dispatch

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Broker publishes an otp.issued event with the code sealed to the
// recipient; the notification consumer opens it and sends the email.
type Broker struct {
	client messaging.Messaging
	sealer sealer.Sealer
	ins    instrument.Instrumentation
}

func NewBroker(client messaging.Messaging, s sealer.Sealer, ins instrument.Instrumentation) *Broker {
	return &Broker{client: client, sealer: s, ins: ins}
}

func (b *Broker) Dispatch(ctx context.Context, d entity.Delivery) error {
	ctx, span := b.ins.Tracer("otp.outbound.dispatch").Start(ctx, "PublishOTPIssued")
	defer span.End()

	sealed, err := b.sealer.Seal([]byte(d.Code), event.OTPCodeAAD(d.Email))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := json.Marshal(event.OTPIssuedMessage{
		UserID:     d.UserID,
		Email:      d.Email,
		SealedCode: sealed,
		ExpiresAt:  d.ExpiresAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := b.client.Publish(ctx, event.OTPIssuedDestination, messaging.Message{
		Key:     []byte(d.Email),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
