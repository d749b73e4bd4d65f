package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start binds the HTTP listener and serves in the background. The returned
// channel is closed once a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("http server listening", "address", l.Addr().String())
	go func() {
		if err := <-a.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("termination signal received")
		close(done)
	}()

	return done
}

// Serve runs the HTTP server on l until Stop.
func (a *App) Serve(l net.Listener) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		errc <- a.httpServer.Serve(l)
	}()
	return errc
}

// Stop drains in-flight requests first so no new OTP is issued, then cancels
// the app context which stops broker consumers, waits for background
// deliveries and finally releases resources in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to drain http server", "error", err)
	}

	a.cancel()

	slog.InfoContext(ctx, "waiting for background deliveries and consumers", "in_flight", a.goroutine.InFlight())
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks finished with errors", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}
