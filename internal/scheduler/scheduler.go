// Package scheduler runs the single polling loop that advances the work
// session, fires due task reminders, announces work timers that ran over
// their estimate and delivers pending notifications.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/recurring"
	"github.com/rezkam/pomotodo/internal/session"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = time.Second

// SessionTicker advances the work session to an instant.
type SessionTicker interface {
	TickSession(ctx context.Context, now time.Time) ([]session.Event, error)
}

// ReminderSource lists reminders to evaluate and records firings.
type ReminderSource interface {
	ActiveReminders(ctx context.Context) ([]domain.Task, error)
	MarkReminderFired(ctx context.Context, taskID string, evaluated domain.Reminder, at time.Time) error
}

// WorkTimerSource lists running work timers whose estimate ran out and
// records the announcement.
type WorkTimerSource interface {
	WorkOverruns(ctx context.Context, now time.Time) ([]domain.Task, error)
	MarkWorkOverrunNotified(ctx context.Context, taskID string, startedAt time.Time) error
}

// Deliverer hands notifications that fell due to the user.
type Deliverer interface {
	DeliverDue(ctx context.Context, now time.Time) (int, error)
}

// TickResult summarizes one evaluation.
type TickResult struct {
	At        time.Time
	Events    []session.Event
	Fired     []string // task IDs
	Overruns  []string // task IDs
	Delivered int
}

// Scheduler evaluates ticks strictly one after another.
type Scheduler struct {
	sessions   SessionTicker
	reminders  ReminderSource
	workTimers WorkTimerSource
	dispatcher notify.Dispatcher
	deliverer  Deliverer
	engine     *recurring.Engine
	clock      clock.Clock

	interval         time.Duration
	operationTimeout time.Duration
	errorHandler     ErrorHandler
	meter            metric.Meter
	tracer           trace.Tracer
	metrics          *metrics

	mu sync.Mutex // serializes ticks
}

// Option is a functional option for configuring Scheduler.
type Option func(*Scheduler)

// WithInterval sets how often the loop ticks.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithOperationTimeout bounds the time one tick may spend in storage and dispatch calls.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.operationTimeout = d
	}
}

// WithDeliverer enables delivery of due notifications at the end of each tick.
func WithDeliverer(d Deliverer) Option {
	return func(s *Scheduler) {
		s.deliverer = d
	}
}

// WithWorkTimers enables the "estimate used up" announcement of running work timers.
func WithWorkTimers(src WorkTimerSource) Option {
	return func(s *Scheduler) {
		s.workTimers = src
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Scheduler) {
		s.errorHandler = h
	}
}

// WithMeter overrides the meter taken from the global provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Scheduler) {
		s.meter = m
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// New creates a Scheduler.
func New(sessions SessionTicker, reminders ReminderSource, dispatcher notify.Dispatcher, engine *recurring.Engine, clk clock.Clock, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		sessions:         sessions,
		reminders:        reminders,
		dispatcher:       dispatcher,
		engine:           engine,
		clock:            clk,
		interval:         DefaultInterval,
		operationTimeout: 10 * time.Second,
		errorHandler:     &DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}
	if s.meter == nil {
		s.meter = otel.Meter(instrumentationName)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}

	m, err := newMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler metrics: %w", err)
	}
	s.metrics = m
	return s, nil
}

// Start ticks until ctx is cancelled. The first tick runs immediately so that
// state missed while the process was down is caught up. Always returns nil.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Scheduler started", "interval", s.interval)
	s.runTick(ctx)

	for {
		select {
		case <-ticker.C():
			s.runTick(ctx)
		case <-ctx.Done():
			slog.InfoContext(ctx, "Scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	// Detached from ctx so a tick in progress at shutdown still persists its state.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.operationTimeout)
	defer cancel()

	if _, err := s.RunOnce(opCtx); err != nil && !IsPanic(err) {
		slog.DebugContext(opCtx, "Tick finished with errors", "error", err)
	}
}

// RunOnce evaluates one tick at the clock's current instant. Step failures are
// reported to the error handler and returned joined; they never abort the
// remaining steps.
func (s *Scheduler) RunOnce(ctx context.Context) (result TickResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	result.At = now

	ctx, span := s.tracer.Start(ctx, "scheduler.tick", trace.WithAttributes(
		attribute.String("tick.at", now.UTC().Format(time.RFC3339)),
	))
	start := time.Now() //nolint:clocknow // tick latency is wall time
	defer func() {
		if p := recover(); p != nil {
			stack := string(debug.Stack())
			s.errorHandler.HandlePanic(ctx, p, stack)
			err = PanicError{Value: p, StackTrace: stack}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "tick failed")
		}
		span.SetAttributes(
			attribute.Int("tick.events", len(result.Events)),
			attribute.Int("tick.reminders_fired", len(result.Fired)),
			attribute.Int("tick.work_overruns", len(result.Overruns)),
			attribute.Int("tick.delivered", result.Delivered),
		)
		span.End()
		s.metrics.ticks.Add(ctx, 1)
		s.metrics.tickDuration.Record(ctx, time.Since(start).Seconds()) //nolint:clocknow
	}()

	var errs []error
	fail := func(step string, stepErr error) {
		s.errorHandler.HandleError(ctx, step, stepErr)
		s.metrics.recordError(ctx, step)
		errs = append(errs, StepError{Step: step, Err: stepErr})
	}

	events, tickErr := s.sessions.TickSession(ctx, now)
	if tickErr != nil {
		fail(StepSession, tickErr)
	}
	result.Events = events
	s.metrics.recordTransitions(ctx, events)

	due, dueErr := s.dispatchDueReminders(ctx, now)
	if dueErr != nil {
		fail(StepReminders, dueErr)
	}

	if s.workTimers != nil {
		overruns, overrunErr := s.announceWorkOverruns(ctx, now)
		result.Overruns = overruns
		s.metrics.workOverruns.Add(ctx, int64(len(overruns)))
		if overrunErr != nil {
			fail(StepWorkTimers, overrunErr)
		}
	}

	if s.deliverer != nil {
		n, deliverErr := s.deliverer.DeliverDue(ctx, now)
		result.Delivered = n
		s.metrics.notificationsDelivered.Add(ctx, int64(n))
		if deliverErr != nil {
			fail(StepDeliver, deliverErr)
		}
	}

	// Recorded after delivery: marking schedules the next occurrence under the
	// same notification id, which would replace the one just dispatched.
	for _, d := range due {
		if markErr := s.reminders.MarkReminderFired(ctx, d.taskID, d.reminder, now); markErr != nil {
			fail(StepMarkFired, fmt.Errorf("task %s: %w", d.taskID, markErr))
			continue
		}
		result.Fired = append(result.Fired, d.taskID)
		s.metrics.remindersFired.Add(ctx, 1)
	}

	return result, errors.Join(errs...)
}

// dueReminder is a reminder dispatched during a tick, as it was evaluated.
type dueReminder struct {
	taskID   string
	reminder domain.Reminder
}

// dispatchDueReminders schedules a notification for every reminder due at now
// and returns what it dispatched.
func (s *Scheduler) dispatchDueReminders(ctx context.Context, now time.Time) ([]dueReminder, error) {
	tasks, err := s.reminders.ActiveReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	var (
		due  []dueReminder
		errs []error
	)
	for _, task := range tasks {
		if task.Reminder == nil || !s.engine.IsDue(*task.Reminder, now, task.Reminder.LastFiredAt) {
			continue
		}
		if err := s.dispatcher.Schedule(ctx, notify.ReminderNotification(task, now)); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		slog.InfoContext(ctx, "Reminder due", "task_id", task.ID, "repeat", task.Reminder.RepeatType)
		due = append(due, dueReminder{taskID: task.ID, reminder: task.Reminder.Clone()})
	}
	return due, errors.Join(errs...)
}

// announceWorkOverruns dispatches one notification per running work timer that
// used up its estimate and records it, so that each run is announced once.
func (s *Scheduler) announceWorkOverruns(ctx context.Context, now time.Time) ([]string, error) {
	tasks, err := s.workTimers.WorkOverruns(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list work timers: %w", err)
	}

	var (
		announced []string
		errs      []error
	)
	for _, task := range tasks {
		if task.WorkTime == nil || task.WorkTime.StartedAt == nil {
			continue
		}
		if err := s.dispatcher.Schedule(ctx, notify.WorkOverrunNotification(task, now)); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if err := s.workTimers.MarkWorkOverrunNotified(ctx, task.ID, *task.WorkTime.StartedAt); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		slog.InfoContext(ctx, "Work estimate used up", "task_id", task.ID, "estimated", task.WorkTime.Estimated)
		announced = append(announced, task.ID)
	}
	return announced, errors.Join(errs...)
}
