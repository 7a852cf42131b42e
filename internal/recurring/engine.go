package recurring

import (
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Engine evaluates reminder rules in a default location.
// A reminder carrying its own valid Timezone is evaluated in that zone instead.
type Engine struct {
	loc *time.Location
}

// NewEngine creates an Engine. A nil location means time.Local.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

// Location returns the default location used for calendar arithmetic.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// NextOccurrence returns the next occurrence of r relative to after, or nil if none.
// One-shot reminders return their date only when it lies strictly after the given instant;
// repeating reminders return the smallest occurrence at or after it.
func (e *Engine) NextOccurrence(r domain.Reminder, after time.Time) *time.Time {
	return CalculatorFor(r.RepeatType).NextOccurrence(r, after, e.locationFor(r))
}

// IsDue reports whether the reminder should fire at now given the last firing instant.
//
// A one-shot reminder is due once its date has passed and it never fired.
// A repeating reminder is due when its first occurrence after lastFired (or its
// first occurrence at all, if it never fired) is not in the future. Several
// missed periods collapse into a single firing.
func (e *Engine) IsDue(r domain.Reminder, now time.Time, lastFired *time.Time) bool {
	next := e.NextDue(r, lastFired)
	return next != nil && !now.Before(*next)
}

// NextDue returns the instant at which the reminder next becomes due, which may
// lie in the past when firings were missed. Nil means it will never fire again.
func (e *Engine) NextDue(r domain.Reminder, lastFired *time.Time) *time.Time {
	if !IsRepeating(r.RepeatType) {
		if lastFired != nil {
			return nil
		}
		date := r.Date
		return &date
	}

	from := r.Date
	if lastFired != nil {
		from = lastFired.Add(time.Nanosecond)
	}
	return e.NextOccurrence(r, from)
}

// OccurrencesBetween returns up to limit occurrences within [start, end].
func (e *Engine) OccurrencesBetween(r domain.Reminder, start, end time.Time, limit int) []time.Time {
	var occurrences []time.Time
	if limit <= 0 {
		return occurrences
	}

	cursor := start.Add(-time.Nanosecond)
	for len(occurrences) < limit {
		next := e.NextOccurrence(r, cursor)
		if next == nil || next.After(end) {
			break
		}
		occurrences = append(occurrences, *next)
		if !IsRepeating(r.RepeatType) {
			break
		}
		cursor = next.Add(time.Nanosecond)
	}

	return occurrences
}

func (e *Engine) locationFor(r domain.Reminder) *time.Location {
	if r.Timezone == "" {
		return e.loc
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return e.loc
	}
	return loc
}
