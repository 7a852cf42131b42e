// Package session implements the work/break cycle as pure transitions over
// a *domain.WorkSession. A nil session means idle. Transitions never fail:
// calls whose precondition does not hold return the session unchanged.
package session

import (
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// EventType identifies a boundary crossed by a transition.
type EventType string

const (
	EventStarted          EventType = "started"
	EventPaused           EventType = "paused"
	EventResumed          EventType = "resumed"
	EventBreakStarted     EventType = "break_started"
	EventWorkResumed      EventType = "work_resumed"
	EventSessionCompleted EventType = "session_completed"
	EventSessionEnded     EventType = "session_ended"
)

// Event is emitted once per boundary crossing.
type Event struct {
	Type EventType
	At   time.Time

	// Break is set for break events.
	Break *domain.Break
}

// Start creates a new working session. Returns s unchanged if a session is already active.
func Start(s *domain.WorkSession, id string, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []Event) {
	if s != nil {
		return s, nil
	}

	return &domain.WorkSession{
		ID:            id,
		StartTime:     now,
		EndTime:       now.Add(settings.TotalDuration),
		Phase:         domain.PhaseWork,
		WorkStartedAt: now,
	}, []Event{{Type: EventStarted, At: now}}
}

// Pause freezes the session. No-op if idle or already paused.
func Pause(s *domain.WorkSession, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil || s.IsPaused {
		return s, nil
	}

	next := s.Clone()
	next.IsPaused = true
	pausedAt := now
	next.PausedAt = &pausedAt
	return &next, []Event{{Type: EventPaused, At: now}}
}

// Resume unfreezes the session and shifts every running deadline by the paused
// interval, so remaining time is the same as when the session was paused.
// No-op if idle or not paused.
func Resume(s *domain.WorkSession, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil || !s.IsPaused {
		return s, nil
	}

	next := s.Clone()
	var paused time.Duration
	if next.PausedAt != nil && now.After(*next.PausedAt) {
		paused = now.Sub(*next.PausedAt)
	}

	next.EndTime = next.EndTime.Add(paused)
	next.PausedTotal += paused
	switch next.Phase {
	case domain.PhaseWork:
		next.WorkStartedAt = next.WorkStartedAt.Add(paused)
	case domain.PhaseBreak:
		if b, ok := next.CurrentBreak(); ok {
			b.EndTime = b.EndTime.Add(paused)
		}
	}

	next.IsPaused = false
	next.PausedAt = nil
	return &next, []Event{{Type: EventResumed, At: now}}
}

// Tick evaluates the session at now and applies at most one phase change.
// Calling Tick repeatedly without crossing a boundary returns an equal session and no events.
// The session ends once its deadline passes regardless of phase; the result is then nil.
func Tick(s *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil || s.IsPaused {
		return s, nil
	}

	if !now.Before(s.EndTime) {
		return nil, []Event{{Type: EventSessionCompleted, At: now}}
	}

	switch s.Phase {
	case domain.PhaseWork:
		if now.Sub(s.WorkStartedAt) < settings.BreakInterval {
			return s, nil
		}
		return startBreak(s, settings, now)

	case domain.PhaseBreak:
		b, ok := s.CurrentBreak()
		if !ok || now.Before(b.EndTime) || !settings.AutoStartAfterBreak {
			return s, nil
		}
		next := s.Clone()
		next.Phase = domain.PhaseWork
		next.WorkStartedAt = b.EndTime
		return &next, []Event{{Type: EventWorkResumed, At: b.EndTime}}
	}

	return s, nil
}

// StartBreak begins a break immediately. No-op unless working and not paused.
func StartBreak(s *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil || s.IsPaused || s.Phase != domain.PhaseWork {
		return s, nil
	}
	return startBreak(s, settings, now)
}

// EndBreak closes the current break at now and resumes work.
// No-op unless on break and not paused.
func EndBreak(s *domain.WorkSession, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil || s.IsPaused || s.Phase != domain.PhaseBreak {
		return s, nil
	}

	next := s.Clone()
	if b, ok := next.CurrentBreak(); ok {
		b.EndTime = now
	}
	next.Phase = domain.PhaseWork
	next.WorkStartedAt = now
	return &next, []Event{{Type: EventWorkResumed, At: now}}
}

// End stops the session. No-op if idle.
func End(s *domain.WorkSession, now time.Time) (*domain.WorkSession, []Event) {
	if s == nil {
		return nil, nil
	}
	return nil, []Event{{Type: EventSessionEnded, At: now}}
}

func startBreak(s *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []Event) {
	next := s.Clone()
	b := domain.Break{StartTime: now, EndTime: now.Add(settings.BreakDuration)}
	next.Breaks = append(next.Breaks, b)
	next.Phase = domain.PhaseBreak
	return &next, []Event{{Type: EventBreakStarted, At: now, Break: &b}}
}
