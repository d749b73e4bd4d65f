// Package idempotency guards retried mutations with a Redis backed state
// machine: none -> in_progress -> completed.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned while another request holds the key.
	ErrAlreadyInProgress = errors.New("operation already in progress")
	// ErrAlreadyCompleted is returned when the key already finished successfully.
	ErrAlreadyCompleted = errors.New("operation already completed")
	// ErrInvalidState is returned when the stored state is unknown.
	ErrInvalidState = errors.New("invalid state")
)

// State is the lifecycle of one idempotency key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

// Idempotency runs fn at most once per (scope, key) until the state expires.
type Idempotency interface {
	Exec(ctx context.Context, scope, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker implements Idempotency on Redis.
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

// New builds a StateTracker on any go-redis client.
func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{
		client: client,
		prefix: "idempotency:",
	}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

// Option tunes a single Exec call.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress claim survives a crash.
func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

func (s *StateTracker) key(scope, key string) string {
	return s.prefix + scope + ":" + key
}

// Acquire claims the key. StateNone means the caller owns it now.
func (s *StateTracker) Acquire(ctx context.Context, scope, key string, lockDuration time.Duration) (State, error) {
	fk := s.key(scope, key)

	acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateNone, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Acquire(ctx, scope, key, lockDuration)
	}
	if err != nil {
		return StateNone, err
	}

	switch State(result) {
	case StateInProgress, StateCompleted:
		return State(result), nil
	default:
		return StateNone, ErrInvalidState
	}
}

// Exec runs fn unless the key is already claimed. A failed fn releases the
// key so the client may retry with the same key.
func (s *StateTracker) Exec(ctx context.Context, scope, key string, fn func(context.Context) error, opts ...Option) error {
	execOpt := &execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(execOpt)
	}
	if execOpt.lockDuration <= 0 {
		execOpt.lockDuration = defaultLockDuration
	}
	if execOpt.stateTTL <= 0 {
		execOpt.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, scope, key, execOpt.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		if delErr := s.client.Del(context.WithoutCancel(ctx), s.key(scope, key)).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return s.client.Set(ctx, s.key(scope, key), StateCompleted.String(), execOpt.stateTTL).Err()
}
