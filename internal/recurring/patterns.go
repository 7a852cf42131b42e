package recurring

import (
	"slices"
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Upper bounds for candidate scans. A valid rule always matches inside them.
const (
	maxWeekScanDays    = 8
	maxMonthScanMonths = 13
)

// OnceCalculator handles reminders that fire a single time.
type OnceCalculator struct{}

// NextOccurrence returns the reminder date if it lies strictly after the given instant.
func (c *OnceCalculator) NextOccurrence(r domain.Reminder, after time.Time, _ *time.Location) *time.Time {
	if after.Before(r.Date) {
		next := r.Date
		return &next
	}
	return nil
}

// DailyCalculator generates daily recurrences on the anchor's time of day.
type DailyCalculator struct{}

func (c *DailyCalculator) NextOccurrence(r domain.Reminder, after time.Time, loc *time.Location) *time.Time {
	anchor := r.Date.In(loc)
	lower := lowerBound(after, r.Date).In(loc)

	next := atTimeOf(anchor, lower.Year(), lower.Month(), lower.Day())
	if next.Before(lower) {
		next = atTimeOf(anchor, lower.Year(), lower.Month(), lower.Day()+1)
	}
	return &next
}

// WeeklyCalculator generates weekly recurrences on the selected weekdays.
// Without a valid selection it repeats on the anchor's weekday.
type WeeklyCalculator struct{}

func (c *WeeklyCalculator) NextOccurrence(r domain.Reminder, after time.Time, loc *time.Location) *time.Time {
	anchor := r.Date.In(loc)
	lower := lowerBound(after, r.Date).In(loc)

	days := validDays(r.Days, 0, 6)
	if len(days) == 0 {
		days = []int{int(anchor.Weekday())}
	}

	for i := range maxWeekScanDays {
		candidate := atTimeOf(anchor, lower.Year(), lower.Month(), lower.Day()+i)
		if candidate.Before(lower) {
			continue
		}
		if slices.Contains(days, int(candidate.Weekday())) {
			return &candidate
		}
	}
	return nil
}

// MonthlyCalculator generates monthly recurrences on the selected days of month.
// Days beyond the end of a shorter month clamp to its last day.
// Without a valid selection it repeats on the anchor's day of month.
type MonthlyCalculator struct{}

func (c *MonthlyCalculator) NextOccurrence(r domain.Reminder, after time.Time, loc *time.Location) *time.Time {
	anchor := r.Date.In(loc)
	lower := lowerBound(after, r.Date).In(loc)

	days := validDays(r.Days, 1, 31)
	if len(days) == 0 {
		days = []int{anchor.Day()}
	}

	year, month := lower.Year(), lower.Month()
	for i := range maxMonthScanMonths {
		y, m := addMonths(year, month, i)
		last := daysIn(y, m)
		for _, d := range days {
			candidate := atTimeOf(anchor, y, m, min(d, last))
			if !candidate.Before(lower) {
				return &candidate
			}
		}
	}
	return nil
}

// lowerBound returns the later of after and the anchor; no occurrence precedes the anchor.
func lowerBound(after, anchor time.Time) time.Time {
	if after.Before(anchor) {
		return anchor
	}
	return after
}

// atTimeOf builds the instant on the given calendar date carrying the anchor's
// time of day and location. Overflowing days roll into the next month.
func atTimeOf(anchor time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
		anchor.Location())
}

// validDays drops out-of-range and duplicate values and sorts the rest.
func validDays(days []int, lo, hi int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < lo || d > hi || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	return year + idx/12, time.Month(idx%12 + 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
