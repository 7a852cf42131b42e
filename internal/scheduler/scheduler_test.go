package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/recurring"
	"github.com/rezkam/pomotodo/internal/session"
)

type fakeSessions struct {
	tickFn func(ctx context.Context, now time.Time) ([]session.Event, error)
	calls  atomic.Int32
}

func (f *fakeSessions) TickSession(ctx context.Context, now time.Time) ([]session.Event, error) {
	f.calls.Add(1)
	if f.tickFn != nil {
		return f.tickFn(ctx, now)
	}
	return nil, nil
}

// fakeReminders mirrors the todo service: firing records LastFiredAt.
type fakeReminders struct {
	mu        sync.Mutex
	tasks     []domain.Task
	markErr   error
	listErr   error
	markCalls []string
}

func (f *fakeReminders) ActiveReminders(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakeReminders) MarkReminderFired(ctx context.Context, id string, evaluated domain.Reminder, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, id)
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].Reminder.SameSchedule(evaluated) {
			fired := at
			f.tasks[i].Reminder.LastFiredAt = &fired
		}
	}
	return nil
}

// fakeWorkTimers mirrors the todo service: announcing records OverrunNotified.
type fakeWorkTimers struct {
	mu      sync.Mutex
	tasks   []domain.Task
	markErr error
}

func (f *fakeWorkTimers) WorkOverruns(ctx context.Context, now time.Time) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if end, ok := t.WorkTime.EstimateEndsAt(); ok && !t.WorkTime.OverrunNotified && !now.Before(end) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeWorkTimers) MarkWorkOverrunNotified(ctx context.Context, id string, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].WorkTime.StartedAt.Equal(startedAt) {
			f.tasks[i].WorkTime.OverrunNotified = true
		}
	}
	return nil
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []notify.Notification
	onDeliver func(n notify.Notification)
}

func (r *recordingSink) Deliver(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, n)
	if r.onDeliver != nil {
		r.onDeliver(n)
	}
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delivered)
}

type recordingErrorHandler struct {
	steps  []string
	panics int
}

func (h *recordingErrorHandler) HandleError(ctx context.Context, step string, err error) {
	h.steps = append(h.steps, step)
}

func (h *recordingErrorHandler) HandlePanic(ctx context.Context, panicVal any, stackTrace string) {
	h.panics++
}

var t0 = time.Date(2026, 6, 1, 8, 59, 0, 0, time.UTC)

func dailyTask(id string, at time.Time) domain.Task {
	return domain.Task{
		ID:       id,
		Title:    "Standup " + id,
		Reminder: &domain.Reminder{Date: at, RepeatType: domain.RepeatDaily, Sound: domain.SoundBell},
	}
}

type fixture struct {
	sched     *Scheduler
	sessions  *fakeSessions
	reminders *fakeReminders
	queue     *notify.Queue
	sink      *recordingSink
	clock     *clock.Manual
	reader    *sdkmetric.ManualReader
	errors    *recordingErrorHandler
}

func newFixture(t *testing.T, tasks ...domain.Task) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  &fakeSessions{},
		reminders: &fakeReminders{tasks: tasks},
		sink:      &recordingSink{},
		clock:     clock.NewManual(t0),
		reader:    sdkmetric.NewManualReader(),
		errors:    &recordingErrorHandler{},
	}
	f.queue = notify.NewQueue(f.sink)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.reader))

	sched, err := New(f.sessions, f.reminders, f.queue, recurring.NewEngine(time.UTC), f.clock,
		WithInterval(time.Second),
		WithDeliverer(f.queue),
		WithErrorHandler(f.errors),
		WithMeter(mp.Meter("test")),
	)
	require.NoError(t, err)
	f.sched = sched
	return f
}

func (f *fixture) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestScheduler_ReminderFiresOncePerPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dailyTask("t1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))

	res, err := f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired, "not due before 09:00")

	f.clock.Advance(time.Minute)
	for range 5 {
		_, err := f.sched.RunOnce(ctx)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	require.Equal(t, 1, f.sink.count())
	assert.Equal(t, notify.ReminderID("t1"), f.sink.delivered[0].ID)
	assert.Equal(t, domain.SoundBell, f.sink.delivered[0].Sound)
	assert.Equal(t, []string{"t1"}, f.reminders.markCalls)
	assert.Equal(t, int64(1), f.counter(t, "pomotodo.scheduler.reminders_fired"))
	assert.Equal(t, int64(6), f.counter(t, "pomotodo.scheduler.ticks"))

	f.clock.Set(time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC))
	_, err = f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.sink.count(), "fires again the next day")
}

func TestScheduler_MarksReminderAsEvaluated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dailyTask("t1", t0))
	replaced := t0.Add(time.Hour)
	f.sink.onDeliver = func(n notify.Notification) {
		f.reminders.mu.Lock()
		defer f.reminders.mu.Unlock()
		f.reminders.tasks[0].Reminder = &domain.Reminder{Date: replaced}
	}

	_, err := f.sched.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, f.reminders.markCalls)
	assert.Nil(t, f.reminders.tasks[0].Reminder.LastFiredAt, "a reminder replaced mid-tick keeps its own history")
}

func TestScheduler_MissedPeriodsCollapse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dailyTask("t1", time.Date(2026, 5, 25, 9, 0, 0, 0, time.UTC)))

	res, err := f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, res.Fired)

	res, err = f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired, "a week of missed firings collapses into one")
	assert.Equal(t, 1, f.sink.count())
}

func TestScheduler_SessionEventsCounted(t *testing.T) {
	f := newFixture(t)
	f.sessions.tickFn = func(ctx context.Context, now time.Time) ([]session.Event, error) {
		return []session.Event{{Type: session.EventBreakStarted, At: now}}, nil
	}

	res, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, int64(1), f.counter(t, "pomotodo.scheduler.session_transitions"))
}

func TestScheduler_StepFailuresDoNotAbortTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dailyTask("t1", t0))
	f.sessions.tickFn = func(ctx context.Context, now time.Time) ([]session.Event, error) {
		return nil, errors.New("save failed")
	}

	res, err := f.sched.RunOnce(ctx)
	require.Error(t, err)

	var stepErr StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepSession, stepErr.Step)
	assert.Equal(t, []string{"t1"}, res.Fired, "reminders still evaluated")
	assert.Equal(t, 1, f.sink.count())
	assert.Equal(t, []string{StepSession}, f.errors.steps)
	assert.Equal(t, int64(1), f.counter(t, "pomotodo.scheduler.errors"))
}

func TestScheduler_MarkFailureRetriesNextTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dailyTask("t1", t0))
	f.reminders.markErr = errors.New("disk full")

	res, err := f.sched.RunOnce(ctx)
	require.Error(t, err)
	assert.Empty(t, res.Fired)
	assert.Equal(t, []string{StepMarkFired}, f.errors.steps)

	f.reminders.markErr = nil
	res, err = f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, res.Fired)
}

func TestScheduler_WorkOverrunAnnouncedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	started := t0.Add(-20 * time.Minute)
	timers := &fakeWorkTimers{tasks: []domain.Task{{
		ID:       "t1",
		Title:    "Draft",
		WorkTime: &domain.WorkTime{Estimated: 30 * time.Minute, Actual: 5 * time.Minute, StartedAt: &started},
	}}}
	WithWorkTimers(timers)(f.sched)

	res, err := f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Overruns, "5 of the remaining 25 minutes are left")

	f.clock.Advance(5 * time.Minute)
	res, err = f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, res.Overruns)
	require.Equal(t, 1, f.sink.count())
	assert.Equal(t, notify.WorkOverrunID("t1"), f.sink.delivered[0].ID)

	f.clock.Advance(time.Minute)
	res, err = f.sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Overruns)
	assert.Equal(t, 1, f.sink.count())
	assert.Equal(t, int64(1), f.counter(t, "pomotodo.scheduler.work_overruns"))
}

func TestScheduler_WorkOverrunMarkFailureReported(t *testing.T) {
	f := newFixture(t)
	started := t0.Add(-time.Hour)
	timers := &fakeWorkTimers{
		tasks: []domain.Task{{
			ID:       "t1",
			WorkTime: &domain.WorkTime{Estimated: time.Minute, StartedAt: &started},
		}},
		markErr: errors.New("disk full"),
	}
	WithWorkTimers(timers)(f.sched)

	res, err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, res.Overruns)
	assert.Equal(t, []string{StepWorkTimers}, f.errors.steps)
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	f.sessions.tickFn = func(ctx context.Context, now time.Time) ([]session.Event, error) {
		panic("boom")
	}

	_, err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, IsPanic(err))
	assert.Equal(t, 1, f.errors.panics)
}

func TestScheduler_StartTicksOnClock(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sched.Start(ctx) }()

	require.Eventually(t, func() bool { return f.sessions.calls.Load() == 1 },
		time.Second, time.Millisecond, "first tick runs immediately")

	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return f.sessions.calls.Load() == 2 },
		time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := New(&fakeSessions{}, &fakeReminders{}, notify.NewQueue(&recordingSink{}),
		recurring.NewEngine(time.UTC), clock.NewManual(t0), WithInterval(0))
	require.Error(t, err)
}
