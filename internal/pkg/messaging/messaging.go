package messaging

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrGroupRequired is returned when Subscribe is called without a group.
	ErrGroupRequired = errors.New("messaging: group is required")
	// ErrHandlerRequired is returned when Subscribe is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("messaging: client closed")
)

// Message is a broker-agnostic event.
type Message struct {
	// Topic is the topic/subject the message was published to.
	Topic string
	// Key is used for partitioning where the broker supports it.
	Key []byte
	// Body is the payload.
	Body []byte
	// Headers carry metadata such as trace context. Not every broker
	// transports them (NSQ drops them).
	Headers map[string]string
}

// Handler processes one message.
type Handler func(ctx context.Context, msg Message) error

// Messaging publishes to topics and runs group subscriptions.
type Messaging interface {
	io.Closer
	// Publish sends msg to topic.
	Publish(ctx context.Context, topic string, msg Message) error
	// Subscribe delivers topic messages to h, load balanced across group
	// members. It blocks until ctx is done or the subscription fails.
	Subscribe(ctx context.Context, topic, group string, h Handler) error
}

func validatePublish(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}

func validateSubscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}
	if group == "" {
		return ErrGroupRequired
	}
	if h == nil {
		return ErrHandlerRequired
	}
	return nil
}

// injectTrace copies the span context of ctx into the message headers.
func injectTrace(ctx context.Context, msg Message) Message {
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
	msg.Headers = headers
	return msg
}

// extractTrace restores the publisher's span context on the consumer side.
func extractTrace(ctx context.Context, msg Message) context.Context {
	if len(msg.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
}
