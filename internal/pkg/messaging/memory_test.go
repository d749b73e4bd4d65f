package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_PublishSubscribe(t *testing.T) {
	// Arrange
	broker := NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 2)
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		close(ready)
		errCh <- broker.Subscribe(ctx, "otp.issued", "notification", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		})
	}()
	<-ready
	waitForGroup(t, broker, "otp.issued", "notification")

	// Act
	err := broker.Publish(ctx, "otp.issued", Message{Body: []byte(`{"email":"a@x.com"}`)})

	// Assert
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case msg := <-got:
		if msg.Topic != "otp.issued" || string(msg.Body) != `{"email":"a@x.com"}` {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_HandlerPanicDoesNotStopSubscription(t *testing.T) {
	broker := NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	go func() {
		_ = broker.Subscribe(ctx, "t", "g", func(context.Context, Message) error {
			calls <- struct{}{}
			panic("boom")
		})
	}()
	waitForGroup(t, broker, "t", "g")

	for range 2 {
		if err := broker.Publish(ctx, "t", Message{Body: []byte("x")}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for range 2 {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("subscription stopped after panic")
		}
	}
}

func TestMemory_Validation(t *testing.T) {
	broker := NewMemory()
	ctx := context.Background()

	if err := broker.Publish(ctx, "", Message{}); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("expected ErrTopicRequired, got %v", err)
	}
	if err := broker.Subscribe(ctx, "t", "", func(context.Context, Message) error { return nil }); !errors.Is(err, ErrGroupRequired) {
		t.Fatalf("expected ErrGroupRequired, got %v", err)
	}
	if err := broker.Subscribe(ctx, "t", "g", nil); !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("expected ErrHandlerRequired, got %v", err)
	}

	_ = broker.Close()
	if err := broker.Publish(ctx, "t", Message{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver(context.Background(), "", FactoryOptions{})
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := m.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", m)
	}

	if _, err := NewFromDriver(context.Background(), "rabbit", FactoryOptions{}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	if _, err := NewFromDriver(context.Background(), DriverKafka, FactoryOptions{}); !errors.Is(err, ErrKafkaBrokersRequired) {
		t.Fatalf("expected ErrKafkaBrokersRequired, got %v", err)
	}
}

func waitForGroup(t *testing.T, broker *Memory, topic, group string) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		broker.mu.RLock()
		_, ok := broker.groups[topic][group]
		broker.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("group %s/%s never subscribed", topic, group)
}
