// Package cli implements pomoctl, which drives tasks, reminders and the work
// session directly against the configured storage.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/app"
	"github.com/rezkam/pomotodo/internal/config"
)

// Opener builds the application for one command invocation.
type Opener func(ctx context.Context, verbose bool) (*app.App, error)

type runtime struct {
	open    Opener
	app     *app.App
	verbose bool
	json    bool
}

// NewRootCommand assembles pomoctl. The application is opened before any
// subcommand runs and closed after it.
func NewRootCommand(open Opener) *cobra.Command {
	rt := &runtime{open: open}

	root := &cobra.Command{
		Use:   "pomoctl",
		Short: "pomoctl manages tasks, reminders and pomodoro work sessions",
		Long: `pomoctl works directly on the pomotodo store configured through POMO_* environment
variables (or a .env file). Run "pomoctl watch" to keep reminders and session
notifications firing while no server is running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			a, err := rt.open(cmd.Context(), rt.verbose)
			if err != nil {
				return err
			}
			rt.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app == nil {
				return nil
			}
			err := rt.app.Close()
			rt.app = nil
			return err
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log informational messages to stderr")
	root.PersistentFlags().BoolVar(&rt.json, "json", false, "Print results as JSON")

	root.AddCommand(
		newTaskCommand(rt),
		newFilterCommand(rt),
		newReminderCommand(rt),
		newSessionCommand(rt),
		newSettingsCommand(rt),
		newPresetCommand(rt),
		newNotificationsCommand(rt),
		newWatchCommand(rt),
	)
	return root
}

// Execute runs pomoctl with the process arguments and exits non-zero on error.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand(OpenFromEnv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// OpenFromEnv loads .env and POMO_* configuration and opens the application.
func OpenFromEnv(ctx context.Context, verbose bool) (*app.App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return app.New(ctx, cfg.AppConfig, logger)
}

// print writes v as indented JSON with --json, otherwise calls text.
func (rt *runtime) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if rt.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
