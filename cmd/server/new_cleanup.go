package main

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// shutdowner abstracts the HTTP server so tests can verify cleanup order
// without binding a port.
type shutdowner interface {
	Shutdown(context.Context) error
}

type waiter interface {
	Wait()
}

// newCleanup builds the shutdown sequence: drain HTTP requests, stop the
// polling loop and wait for its last tick, then close storage. The timeout
// bounds the HTTP drain and starts when cleanup runs.
func newCleanup(timeout time.Duration, server shutdowner, stopScheduler context.CancelFunc, scheduler waiter, app io.Closer) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down HTTP server", slog.String("error", err.Error()))
			}
		}

		if stopScheduler != nil {
			stopScheduler()
		}
		if scheduler != nil {
			scheduler.Wait()
		}

		if app != nil {
			if err := app.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close storage", slog.String("error", err.Error()))
			}
		}
	}
}
