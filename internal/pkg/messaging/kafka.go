package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// Dialer configures broker connections for readers.
	Dialer *kafka.Dialer
}

// Kafka is a Messaging backed by kafka-go. A group maps to a consumer group.
// Offsets are committed after the handler runs; failures are logged and
// skipped so one poison message cannot stall the partition.
type Kafka struct {
	cfg    KafkaConfig
	writer *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
}

// NewKafka constructs a Kafka client with one shared writer.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish writes msg to topic.
func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	msg = injectTrace(ctx, msg)
	kmsg := kafka.Message{Topic: topic, Key: msg.Key, Value: msg.Body}
	for key, v := range msg.Headers {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

// Subscribe consumes topic as a member of consumer group group.
func (k *Kafka) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, group, h); err != nil {
		return err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.cfg.Dialer,
	})
	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		msg := Message{Topic: m.Topic, Key: m.Key, Body: m.Value, Headers: make(map[string]string, len(m.Headers))}
		for _, hdr := range m.Headers {
			msg.Headers[hdr.Key] = string(hdr.Value)
		}

		if err := handle(ctx, DriverKafka, h, msg); err != nil {
			slog.ErrorContext(ctx, "failed to handle message", "topic", topic, "group", group, "offset", m.Offset, "error", err)
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("messaging: kafka commit: %w", err)
		}
	}
}

// Close flushes the writer and closes open readers.
func (k *Kafka) Close() error {
	k.mu.Lock()
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	err := k.writer.Close()
	for _, r := range readers {
		err = errors.Join(err, r.Close())
	}
	return err
}
