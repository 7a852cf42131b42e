package todo

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/ptr"
)

// StartWork starts the task's work timer. The polling loop announces once when
// the remaining estimate runs out.
func (s *Service) StartWork(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}
	if s.tasks[i].Completed {
		return nil, domain.ErrTaskCompleted
	}
	if wt := s.tasks[i].WorkTime; wt != nil && wt.Running() {
		return nil, domain.ErrWorkRunning
	}

	now := s.clock.Now().UTC()
	task := s.tasks[i].Clone()
	wt := workTime(&task)
	wt.StartedAt = &now
	wt.OverrunNotified = false
	task.UpdatedAt = now

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "work timer started", "task_id", id, "estimated", wt.Estimated, "actual", wt.Actual)
	return ptr.To(task.Clone()), nil
}

// StopWork stops the task's work timer and adds the elapsed time, truncated to
// the second, to the actual effort.
func (s *Service) StopWork(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}
	if wt := s.tasks[i].WorkTime; wt == nil || !wt.Running() {
		return nil, domain.ErrWorkNotRunning
	}

	now := s.clock.Now().UTC()
	task := s.tasks[i].Clone()
	elapsed := stopWork(task.WorkTime, now)
	task.UpdatedAt = now

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	s.cancelWorkOverrun(ctx, id)
	slog.InfoContext(ctx, "work timer stopped", "task_id", id, "elapsed", elapsed, "actual", task.WorkTime.Actual)
	return ptr.To(task.Clone()), nil
}

// stopWork folds the running interval into Actual and returns it. A clock
// that went backwards adds nothing.
func stopWork(wt *domain.WorkTime, now time.Time) time.Duration {
	elapsed := max(now.Sub(*wt.StartedAt), 0).Truncate(time.Second)
	wt.Actual += elapsed
	wt.StartedAt = nil
	wt.OverrunNotified = false
	return elapsed
}

// WorkOverruns returns the open tasks whose running timer used up the
// estimate at or before now and that were not announced yet.
func (s *Service) WorkOverruns(ctx context.Context, now time.Time) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.Task
	for _, t := range s.tasks {
		if t.Completed || t.WorkTime == nil || t.WorkTime.OverrunNotified {
			continue
		}
		if end, ok := t.WorkTime.EstimateEndsAt(); ok && !now.Before(end) {
			due = append(due, t.Clone())
		}
	}
	return due, nil
}

// MarkWorkOverrunNotified records that the run started at startedAt was
// announced. A run that was stopped or restarted since is left alone.
func (s *Service) MarkWorkOverrunNotified(ctx context.Context, id string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		// Deleted after it was announced.
		return nil
	}
	wt := s.tasks[i].WorkTime
	if wt == nil || !wt.Running() || !wt.StartedAt.Equal(startedAt) || wt.OverrunNotified {
		return nil
	}

	task := s.tasks[i].Clone()
	task.WorkTime.OverrunNotified = true

	next := slices.Clone(s.tasks)
	next[i] = task
	return s.commitLocked(ctx, next)
}

func (s *Service) cancelWorkOverrun(ctx context.Context, id string) {
	if err := s.dispatcher.Cancel(ctx, notify.WorkOverrunID(id)); err != nil {
		slog.WarnContext(ctx, "failed to cancel work overrun notification", "task_id", id, "error", err)
	}
}
