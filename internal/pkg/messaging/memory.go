package messaging

import (
	"context"
	"log/slog"
	"sync"
)

const memoryBuffer = 64

// Memory is an in-process broker. Messages published while a topic has no
// subscribers are dropped and failed handlers are not retried.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan Message
	closed bool
	done   chan struct{}
}

// NewMemory builds an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]map[string]chan Message),
		done:   make(chan struct{}),
	}
}

// Publish fans msg out to every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	msg = injectTrace(ctx, msg)
	msg.Topic = topic

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	for _, ch := range m.groups[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe consumes topic as a member of group until ctx is done or the
// broker is closed.
func (m *Memory) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, group, h); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.groups[topic] == nil {
		m.groups[topic] = make(map[string]chan Message)
	}
	ch, ok := m.groups[topic][group]
	if !ok {
		ch = make(chan Message, memoryBuffer)
		m.groups[topic][group] = ch
	}
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case msg := <-ch:
			if err := handle(ctx, DriverMemory, h, msg); err != nil {
				slog.ErrorContext(ctx, "failed to handle message", "topic", topic, "group", group, "error", err)
			}
		}
	}
}

// Close stops every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
