package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpify/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is multiplied by the CPU count when NewManager receives
// a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrSaturated is returned by TryGo when every slot is busy.
var ErrSaturated = errors.New("goroutine: manager is saturated")

// ErrClosed is returned by TryGo once Wait has been called.
var ErrClosed = errors.New("goroutine: manager is closed")

// Manager runs tasks in goroutines under a concurrency limit.
//
// Task errors are collected and returned by Wait, which also stops the manager
// from accepting new work.
type Manager struct {
	mu       sync.Mutex
	errs     []error
	wg       sync.WaitGroup
	sema     chan struct{}
	stateMu  sync.RWMutex
	closed   bool
	inFlight atomic.Int64
}

// NewManager creates a Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema: make(chan struct{}, maxGoroutine),
	}
}

// Go schedules f and logs a warning when it cannot be scheduled.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if err := g.TryGo(ctx, f); err != nil {
		slog.WarnContext(ctx, "failed to start goroutine", "error", err)
	}
}

// TryGo schedules f without blocking. It returns ErrSaturated when the limit is
// reached and ErrClosed after Wait.
func (g *Manager) TryGo(ctx context.Context, f func(ctx context.Context) error) error {
	if g == nil {
		return ErrClosed
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		return ErrSaturated
	}

	g.inFlight.Inc()
	g.wg.Go(func() {
		defer func() {
			g.inFlight.Dec()
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
				}
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})

	return nil
}

// InFlight reports how many tasks are currently running.
func (g *Manager) InFlight() int64 {
	if g == nil {
		return 0
	}
	return g.inFlight.Load()
}

// Wait stops accepting work, blocks until every task finishes and returns the
// collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
