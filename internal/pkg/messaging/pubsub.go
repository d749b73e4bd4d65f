package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when the project id is missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// ClientOptions are used when creating the client.
	ClientOptions []option.ClientOption
}

// PubSub is a Messaging backed by Google Pub/Sub. A group names the
// subscription, which must already be attached to the topic. Handler errors
// nack the message for redelivery.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a Pub/Sub client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: make(map[string]*pubsub.Publisher)}, nil
}

func (p *PubSub) publisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub
}

// Publish sends msg to topic and waits for the server ack.
func (p *PubSub) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	msg = injectTrace(ctx, msg)
	res := p.publisher(topic).Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  msg.Headers,
		OrderingKey: string(msg.Key),
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

// Subscribe receives from the subscription named group.
func (p *PubSub) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, group, h); err != nil {
		return err
	}

	return p.client.Subscriber(group).Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg := Message{Topic: topic, Key: []byte(m.OrderingKey), Body: m.Data, Headers: m.Attributes}
		if err := handle(ctx, DriverGooglePubSub, h, msg); err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
}

// Close stops publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	for _, pub := range p.publishers {
		pub.Stop()
	}
	p.publishers = make(map[string]*pubsub.Publisher)
	p.mu.Unlock()

	return p.client.Close()
}
