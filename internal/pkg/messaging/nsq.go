package messaging

import (
	"context"
	"errors"
	"fmt"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQProducerAddrRequired is returned when publishing without a producer address.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd/lookupd consumer addresses are configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd address for publishing.
	ProducerAddr string
	// ConsumerNSQDAddrs lists nsqd addresses for consumers.
	ConsumerNSQDAddrs []string
	// ConsumerLookupdAddrs lists lookupd addresses for consumers; preferred over nsqd.
	ConsumerLookupdAddrs []string
	// Config overrides the default go-nsq config for both sides.
	Config *nsq.Config
}

// NSQ is a Messaging backed by NSQ. A group maps to an NSQ channel and a
// handler error requeues the message. Headers are not transported.
type NSQ struct {
	cfg      NSQConfig
	nsqCfg   *nsq.Config
	producer *nsq.Producer
}

// NewNSQ constructs an NSQ client. The producer is optional.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	nsqCfg := cfg.Config
	if nsqCfg == nil {
		nsqCfg = nsq.NewConfig()
	}

	n := &NSQ{cfg: cfg, nsqCfg: nsqCfg}
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsqCfg)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

// Publish sends msg.Body to topic.
func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}
	if n.producer == nil {
		return ErrNSQProducerAddrRequired
	}

	if err := n.producer.Publish(topic, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Subscribe consumes topic on the channel named group.
func (n *NSQ) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, group, h); err != nil {
		return err
	}
	if len(n.cfg.ConsumerNSQDAddrs) == 0 && len(n.cfg.ConsumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	consumer, err := nsq.NewConsumer(topic, group, n.nsqCfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		// go-nsq finishes on nil and requeues on error.
		return handle(ctx, DriverNSQ, h, Message{Topic: topic, Body: m.Body})
	}))

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

// Close stops the producer.
func (n *NSQ) Close() error {
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}
