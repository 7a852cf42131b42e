// Package app assembles the services, storage and notification sink from
// configuration. Both binaries build on it.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/rezkam/pomotodo/internal/application/todo"
	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/config"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/persistence/kvstore"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/notify/desktop"
	"github.com/rezkam/pomotodo/internal/recurring"
	"github.com/rezkam/pomotodo/internal/scheduler"
	"github.com/rezkam/pomotodo/internal/storage"
)

// App holds the wired application.
type App struct {
	Todo    *todo.Service
	Session *worksession.Service
	Queue   *notify.Queue
	Engine  *recurring.Engine
	Clock   clock.Clock

	scheduler config.SchedulerConfig
	closers   []io.Closer
}

type options struct {
	clock    clock.Clock
	store    storage.Store
	sink     notify.Sink
	location *time.Location
}

// Option overrides a dependency New would otherwise build from configuration.
type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStore uses store instead of opening the configured backend. The caller
// keeps ownership of it.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSink replaces the configured notification sink.
func WithSink(s notify.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLocation sets the default timezone of reminders that carry none.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// New opens storage, builds the sink and services and restores saved state.
// Close releases what New opened.
func New(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{clock: clock.Real{}, location: cmp.Or(cfg.Timezone, time.Local)}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Clock:     o.clock,
		Engine:    recurring.NewEngine(o.location),
		scheduler: cfg.Scheduler,
	}
	if err := a.wire(ctx, cfg, logger, o); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			slog.WarnContext(ctx, "failed to release resources", "error", closeErr)
		}
		return nil, err
	}

	a.Todo.Load(ctx)
	a.Session.Load(ctx)
	return a, nil
}

func (a *App) wire(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, o options) error {
	store := o.store
	if store == nil {
		s, err := OpenStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s)
		store = s
	}

	sink := o.sink
	if sink == nil {
		s, closer, err := NewSink(cfg.Notifier, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		sink = s
	}

	var sessionOpts []worksession.Option
	if cfg.PresetsFile != "" {
		extra, err := LoadPresets(cfg.PresetsFile)
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, worksession.WithExtraPresets(extra))
	}

	repo := kvstore.NewRepository(store)
	a.Queue = notify.NewQueue(sink)
	a.Todo = todo.NewService(repo, a.Queue, a.Engine, a.Clock)
	a.Session = worksession.NewService(repo, a.Queue, a.Clock, sessionOpts...)
	return nil
}

// NewScheduler builds the polling loop over the app's services.
func (a *App) NewScheduler(opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	base := []scheduler.Option{
		scheduler.WithInterval(a.scheduler.TickInterval),
		scheduler.WithOperationTimeout(a.scheduler.OperationTimeout),
		scheduler.WithDeliverer(a.Queue),
		scheduler.WithWorkTimers(a.Todo),
	}
	return scheduler.New(a.Session, a.Todo, a.Queue, a.Engine, a.Clock, append(base, opts...)...)
}

// Close releases storage and the sink in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// LoadPresets reads a TOML preset catalogue from path.
func LoadPresets(path string) ([]domain.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return worksession.ParseCatalogue(data)
}

// NewSink builds the configured sink. The closer is nil when the sink holds
// no resources.
func NewSink(cfg config.NotifierConfig, logger *slog.Logger) (notify.Sink, io.Closer, error) {
	switch cfg.Type {
	case config.NotifierDesktop:
		s, err := desktop.New(cfg.AppName, desktop.WithExpireTimeout(cfg.Expire))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create desktop notifier: %w", err)
		}
		return s, s, nil
	case config.NotifierLog, "":
		return notify.NewLogSink(logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Type)
	}
}
