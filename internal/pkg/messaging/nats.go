package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

const natsFlushTimeout = 5 * time.Second

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string
	// Options are passed to the NATS client.
	Options []nats.Option
}

// NATS is a Messaging backed by core NATS. Core NATS has no redelivery, so
// handler errors are only logged.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Publish sends msg to the subject named topic.
func (n *NATS) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	msg = injectTrace(ctx, msg)
	nmsg := nats.NewMsg(topic)
	nmsg.Data = msg.Body
	for k, v := range msg.Headers {
		nmsg.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushTimeout(natsFlushTimeout); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Subscribe joins the queue group named group on subject topic.
func (n *NATS) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, group, h); err != nil {
		return err
	}

	sub, err := n.conn.QueueSubscribe(topic, group, func(m *nats.Msg) {
		msg := Message{Topic: m.Subject, Body: m.Data, Headers: make(map[string]string, len(m.Header))}
		for k := range m.Header {
			msg.Headers[k] = m.Header.Get(k)
		}
		if err := handle(ctx, DriverNATS, h, msg); err != nil {
			slog.ErrorContext(ctx, "failed to handle message", "topic", topic, "group", group, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	<-ctx.Done()
	return errors.Join(ctx.Err(), sub.Drain())
}

// Close drains the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}
