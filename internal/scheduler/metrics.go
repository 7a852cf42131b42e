package scheduler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rezkam/pomotodo/internal/session"
)

const instrumentationName = "github.com/rezkam/pomotodo/internal/scheduler"

type metrics struct {
	ticks                  metric.Int64Counter
	tickDuration           metric.Float64Histogram
	sessionTransitions     metric.Int64Counter
	remindersFired         metric.Int64Counter
	workOverruns           metric.Int64Counter
	notificationsDelivered metric.Int64Counter
	stepErrors             metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	if m.ticks, err = meter.Int64Counter("pomotodo.scheduler.ticks",
		metric.WithDescription("Polling loop ticks evaluated")); err != nil {
		return nil, err
	}
	if m.tickDuration, err = meter.Float64Histogram("pomotodo.scheduler.tick.duration",
		metric.WithDescription("Time spent evaluating one tick"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.sessionTransitions, err = meter.Int64Counter("pomotodo.scheduler.session_transitions",
		metric.WithDescription("Work session boundaries crossed by the polling loop")); err != nil {
		return nil, err
	}
	if m.remindersFired, err = meter.Int64Counter("pomotodo.scheduler.reminders_fired",
		metric.WithDescription("Task reminders dispatched")); err != nil {
		return nil, err
	}
	if m.workOverruns, err = meter.Int64Counter("pomotodo.scheduler.work_overruns",
		metric.WithDescription("Work timers announced as over their estimate")); err != nil {
		return nil, err
	}
	if m.notificationsDelivered, err = meter.Int64Counter("pomotodo.scheduler.notifications_delivered",
		metric.WithDescription("Notifications handed to the sink")); err != nil {
		return nil, err
	}
	if m.stepErrors, err = meter.Int64Counter("pomotodo.scheduler.errors",
		metric.WithDescription("Failed tick steps")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metrics) recordTransitions(ctx context.Context, events []session.Event) {
	for _, e := range events {
		m.sessionTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("event", string(e.Type))))
	}
}

func (m *metrics) recordError(ctx context.Context, step string) {
	m.stepErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}
