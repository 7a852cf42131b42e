package worksession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
)

// upcoming returns the notifications the session should have pending: the next
// break while working, and the return to work while on an auto-ending break.
// Both require sound; nothing is pending while paused or past the deadline.
func (s *Service) upcoming(sess *domain.WorkSession) []notify.Notification {
	if sess == nil || sess.IsPaused || !s.settings.SoundEnabled {
		return nil
	}

	switch sess.Phase {
	case domain.PhaseWork:
		at := sess.WorkStartedAt.Add(s.settings.BreakInterval)
		if !at.Before(sess.EndTime) {
			return nil
		}
		return []notify.Notification{{
			ID:     notify.BreakID(sess.ID, at),
			Title:  "Time for a break",
			Body:   fmt.Sprintf("Take a %s break.", formatDuration(s.settings.BreakDuration)),
			FireAt: at,
		}}

	case domain.PhaseBreak:
		b, ok := sess.CurrentBreak()
		if !ok || !s.settings.AutoStartAfterBreak || !b.EndTime.Before(sess.EndTime) {
			return nil
		}
		return []notify.Notification{{
			ID:     notify.WorkID(sess.ID, b.EndTime),
			Title:  "Break is over",
			Body:   "Back to work.",
			FireAt: b.EndTime,
		}}
	}
	return nil
}

func (s *Service) plannedIDs(sess *domain.WorkSession) []string {
	var ids []string
	for _, n := range s.upcoming(sess) {
		ids = append(ids, n.ID)
	}
	return ids
}

// scheduleUpcoming schedules the session's pending notifications and returns their ids.
func (s *Service) scheduleUpcoming(ctx context.Context, sess *domain.WorkSession) []string {
	var ids []string
	for _, n := range s.upcoming(sess) {
		s.schedule(ctx, n)
		ids = append(ids, n.ID)
	}
	return ids
}

func (s *Service) schedule(ctx context.Context, n notify.Notification) {
	if err := s.dispatcher.Schedule(ctx, n); err != nil {
		slog.WarnContext(ctx, "failed to schedule notification", "notification_id", n.ID, "error", err)
	}
}

func (s *Service) cancel(ctx context.Context, id string) {
	if err := s.dispatcher.Cancel(ctx, id); err != nil {
		slog.WarnContext(ctx, "failed to cancel notification", "notification_id", id, "error", err)
	}
}

func completeNotification(sessionID string, at time.Time) notify.Notification {
	return notify.Notification{
		ID:     notify.CompleteID(sessionID, at),
		Title:  "Work session complete",
		Body:   "Great job! Your work session is complete.",
		FireAt: at,
	}
}

// formatDuration renders whole minutes as "5 minute" and anything else with time.Duration's format.
func formatDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d minute", int(d/time.Minute))
	}
	return d.String()
}
