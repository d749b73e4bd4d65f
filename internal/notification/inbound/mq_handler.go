package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc     uc
	uuid   uid.StringID
	sealer sealer.Sealer
	ins    instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers map[string]string) context.Context {
	if cid := headers[keyOfCorrelationID]; cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OTPIssuedNotification emails the code sealed in an otp.issued event.
// Messages that cannot be decoded or opened are dropped; send failures are
// returned so the broker can redeliver.
func (h *MQHandler) OTPIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPIssuedNotification")
	defer span.End()

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued notification", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: otp issued notification", "user_id", payload.UserID, "email", payload.Email)

	code, err := h.sealer.Open(payload.SealedCode, event.OTPCodeAAD(payload.Email))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sealed code of otp issued notification", "user_id", payload.UserID, "error", err)
		return nil
	}

	if err := h.uc.SendOTP(ctx, payload.Email, string(code), time.Unix(payload.ExpiresAt, 0)); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordResetNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetNotification")
	defer span.End()

	var payload event.PasswordResetMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password reset notification", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: password reset notification", "user_id", payload.UserID)

	link, err := h.sealer.Open(payload.SealedLink, event.ResetLinkAAD(payload.Email))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sealed link of password reset notification", "user_id", payload.UserID, "error", err)
		return nil
	}

	if err := h.uc.SendPasswordReset(ctx, payload.Email, payload.FullName, string(link)); err != nil {
		slog.ErrorContext(ctx, "failed to consume password reset", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
