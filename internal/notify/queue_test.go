package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/domain"
)

// recordingSink captures delivered notifications and optionally fails.
type recordingSink struct {
	delivered   []Notification
	deliverFunc func(n Notification) error
}

func (s *recordingSink) Deliver(_ context.Context, n Notification) error {
	if s.deliverFunc != nil {
		if err := s.deliverFunc(n); err != nil {
			return err
		}
	}
	s.delivered = append(s.delivered, n)
	return nil
}

var base = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func TestQueue_ScheduleListCancel(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&recordingSink{})

	require.NoError(t, q.Schedule(ctx, Notification{ID: "b", FireAt: base.Add(2 * time.Minute)}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "a", FireAt: base.Add(time.Minute)}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "c", FireAt: base.Add(time.Minute)}))

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []string{"a", "c", "b"}, ids(pending))

	require.NoError(t, q.Cancel(ctx, "c"))
	require.NoError(t, q.Cancel(ctx, "unknown"))
	pending, _ = q.ListPending(ctx)
	assert.Equal(t, []string{"a", "b"}, ids(pending))

	require.NoError(t, q.CancelAll(ctx))
	pending, _ = q.ListPending(ctx)
	assert.Empty(t, pending)
}

func TestQueue_ScheduleReplacesSameID(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&recordingSink{})

	require.NoError(t, q.Schedule(ctx, Notification{ID: "r", Title: "old", FireAt: base}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "r", Title: "new", FireAt: base.Add(time.Hour)}))

	pending, _ := q.ListPending(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].Title)
}

func TestQueue_ScheduleRequiresID(t *testing.T) {
	q := NewQueue(&recordingSink{})
	assert.Error(t, q.Schedule(context.Background(), Notification{}))
}

func TestQueue_DeliverDue(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	q := NewQueue(sink)

	require.NoError(t, q.Schedule(ctx, Notification{ID: "now", FireAt: base}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "past", FireAt: base.Add(-time.Minute)}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "future", FireAt: base.Add(time.Second)}))

	n, err := q.DeliverDue(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"past", "now"}, ids(sink.delivered))

	// Delivered notifications are not delivered again.
	n, err = q.DeliverDue(ctx, base)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, _ := q.ListPending(ctx)
	assert.Equal(t, []string{"future"}, ids(pending))
}

func TestQueue_DeliverDue_SinkErrorIsReportedAndDropped(t *testing.T) {
	ctx := context.Background()
	sinkErr := errors.New("bus unavailable")
	sink := &recordingSink{deliverFunc: func(n Notification) error {
		if n.ID == "bad" {
			return sinkErr
		}
		return nil
	}}
	q := NewQueue(sink)

	require.NoError(t, q.Schedule(ctx, Notification{ID: "bad", FireAt: base}))
	require.NoError(t, q.Schedule(ctx, Notification{ID: "good", FireAt: base}))

	n, err := q.DeliverDue(ctx, base)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, sinkErr)

	pending, _ := q.ListPending(ctx)
	assert.Empty(t, pending)
}

func TestLogSink_Deliver(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Deliver(context.Background(), Notification{ID: "n1", Title: "Break Time!", Body: "Take a break"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"notification_id":"n1"`)
	assert.Contains(t, buf.String(), `"title":"Break Time!"`)
}

func TestNotificationIDs(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "break_s1_1700000000000", BreakID("s1", at))
	assert.Equal(t, "work_s1_1700000000000", WorkID("s1", at))
	assert.Equal(t, "complete_s1_1700000000000", CompleteID("s1", at))
	assert.Equal(t, "reminder_t1", ReminderID("t1"))
	assert.Equal(t, "worktime_t1", WorkOverrunID("t1"))
}

func TestWorkOverrunNotification(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	task := domain.Task{ID: "t1", Title: "Draft", WorkTime: &domain.WorkTime{Estimated: 45 * time.Minute}}

	n := WorkOverrunNotification(task, at)
	assert.Equal(t, "worktime_t1", n.ID)
	assert.Equal(t, at, n.FireAt)
	assert.Equal(t, "Draft: estimated 45m0s elapsed", n.Body)
}

func ids(ns []Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}
