package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpify/internal/pkg/stacktrace"
)

// handle runs h with trace context restored and panics turned into errors.
func handle(ctx context.Context, driver string, h Handler, msg Message) (err error) {
	ctx = extractTrace(ctx, msg)

	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", msg.Topic, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", msg.Topic, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return h(ctx, msg)
}
