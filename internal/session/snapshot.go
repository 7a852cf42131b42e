package session

import (
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Snapshot is a read-only view of a session at an instant.
type Snapshot struct {
	Active   bool
	Phase    domain.Phase
	IsPaused bool

	Elapsed        time.Duration
	Remaining      time.Duration
	UntilNextBreak time.Duration
	BreakRemaining time.Duration
	BreakCount     int
}

// Observe derives elapsed and remaining times. While paused, values are frozen
// at the pause instant.
func Observe(s *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) Snapshot {
	if s == nil {
		return Snapshot{Phase: domain.PhaseIdle}
	}

	at := now
	if s.IsPaused && s.PausedAt != nil {
		at = *s.PausedAt
	}

	total := s.EndTime.Sub(s.StartTime) - s.PausedTotal
	snap := Snapshot{
		Active:     true,
		Phase:      s.Phase,
		IsPaused:   s.IsPaused,
		Remaining:  nonNegative(s.EndTime.Sub(at)),
		BreakCount: len(s.Breaks),
	}
	snap.Elapsed = nonNegative(total - snap.Remaining)

	switch s.Phase {
	case domain.PhaseWork:
		snap.UntilNextBreak = nonNegative(settings.BreakInterval - at.Sub(s.WorkStartedAt))
	case domain.PhaseBreak:
		if b, ok := s.CurrentBreak(); ok {
			snap.BreakRemaining = nonNegative(b.EndTime.Sub(at))
		}
	}

	return snap
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
