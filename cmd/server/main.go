package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rezkam/pomotodo/internal/app"
	"github.com/rezkam/pomotodo/internal/config"
	httpserver "github.com/rezkam/pomotodo/internal/infrastructure/http"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
	"github.com/rezkam/pomotodo/internal/infrastructure/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context, cancelled on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetry, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		// The collector may be unreachable; don't hang on exit.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down telemetry: %v\n", err)
		}
	}()
	slog.SetDefault(telemetry.Logger)

	slog.InfoContext(ctx, "starting pomotodo server",
		"storage", cfg.Storage.Type,
		"notifier", cfg.Notifier.Type,
		"tick_interval", cfg.Scheduler.TickInterval)

	application, err := app.New(ctx, cfg.AppConfig, telemetry.Logger)
	if err != nil {
		return err
	}

	sched, err := application.NewScheduler()
	if err != nil {
		_ = application.Close()
		return err
	}

	router := handler.NewRouter(application.Todo, application.Session, application.Queue, application.Clock)
	server := httpserver.NewAPIServer(router, cfg.HTTP)

	var schedulerDone sync.WaitGroup
	schedulerDone.Go(func() {
		_ = sched.Start(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	cleanup := newCleanup(cfg.ShutdownTimeout, server, cancel, &schedulerDone, application)

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		cleanup()
		return nil
	case err := <-serveErr:
		cleanup()
		return err
	}
}
