package notify

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Queue is an in-process Dispatcher. Pending notifications are held in memory
// and handed to the sink when DeliverDue observes that their time has come.
// Scheduling an id that is already pending replaces it.
type Queue struct {
	mu      sync.Mutex
	pending map[string]Notification
	sink    Sink
}

// NewQueue creates a Queue delivering to sink.
func NewQueue(sink Sink) *Queue {
	return &Queue{
		pending: make(map[string]Notification),
		sink:    sink,
	}
}

// Schedule adds or replaces a pending notification.
func (q *Queue) Schedule(ctx context.Context, n Notification) error {
	if n.ID == "" {
		return errors.New("notification id is required")
	}

	q.mu.Lock()
	q.pending[n.ID] = n
	q.mu.Unlock()

	slog.DebugContext(ctx, "Notification scheduled", "notification_id", n.ID, "fire_at", n.FireAt)
	return nil
}

// Cancel removes a pending notification. Unknown ids are ignored.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
	return nil
}

// CancelAll removes every pending notification.
func (q *Queue) CancelAll(ctx context.Context) error {
	q.mu.Lock()
	clear(q.pending)
	q.mu.Unlock()
	return nil
}

// ListPending returns pending notifications ordered by fire time.
func (q *Queue) ListPending(ctx context.Context) ([]Notification, error) {
	q.mu.Lock()
	out := make([]Notification, 0, len(q.pending))
	for _, n := range q.pending {
		out = append(out, n)
	}
	q.mu.Unlock()

	sortByFireTime(out)
	return out, nil
}

// DeliverDue removes every notification whose fire time is not after now and
// hands it to the sink. Returns the number delivered successfully; failed
// deliveries are dropped and reported in the joined error.
func (q *Queue) DeliverDue(ctx context.Context, now time.Time) (int, error) {
	q.mu.Lock()
	var due []Notification
	for id, n := range q.pending {
		if !n.FireAt.After(now) {
			due = append(due, n)
			delete(q.pending, id)
		}
	}
	q.mu.Unlock()

	sortByFireTime(due)

	var errs []error
	delivered := 0
	for _, n := range due {
		if err := q.sink.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("failed to deliver notification %s: %w", n.ID, err))
			continue
		}
		delivered++
	}

	return delivered, errors.Join(errs...)
}

func sortByFireTime(ns []Notification) {
	slices.SortFunc(ns, func(a, b Notification) int {
		if c := a.FireAt.Compare(b.FireAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
