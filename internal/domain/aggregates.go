package domain

import (
	"slices"
	"time"
)

// Task is a single to-do entry.
type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	Category    Category
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Reminder is nil when the task has no reminder attached.
	Reminder *Reminder

	// WorkTime is nil until an estimate or actual time is recorded.
	WorkTime *WorkTime
}

// HasActiveReminder reports whether the task should be evaluated by the reminder loop.
func (t *Task) HasActiveReminder() bool {
	return t.Reminder != nil && !t.Completed
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.Tags = slices.Clone(t.Tags)
	if t.Reminder != nil {
		r := t.Reminder.Clone()
		c.Reminder = &r
	}
	if t.WorkTime != nil {
		wt := t.WorkTime.Clone()
		c.WorkTime = &wt
	}
	return c
}

// WorkTime tracks estimated and actual effort on a task.
type WorkTime struct {
	Estimated time.Duration
	Actual    time.Duration

	// StartedAt is set while the work timer runs. Stopping it adds the
	// elapsed time to Actual.
	StartedAt *time.Time

	// OverrunNotified records that the current run already announced the
	// estimate running out.
	OverrunNotified bool
}

// Clone returns a deep copy of the work time.
func (w WorkTime) Clone() WorkTime {
	c := w
	if w.StartedAt != nil {
		t := *w.StartedAt
		c.StartedAt = &t
	}
	return c
}

// Running reports whether the work timer is started.
func (w WorkTime) Running() bool {
	return w.StartedAt != nil
}

// IsZero reports whether nothing is recorded.
func (w WorkTime) IsZero() bool {
	return w.Estimated == 0 && w.Actual == 0 && w.StartedAt == nil
}

// Spent returns the actual effort including the running interval up to now.
func (w WorkTime) Spent(now time.Time) time.Duration {
	if w.StartedAt == nil || now.Before(*w.StartedAt) {
		return w.Actual
	}
	return w.Actual + now.Sub(*w.StartedAt)
}

// EstimateEndsAt returns when the running timer uses up the estimate. There
// is none without an estimate or while stopped.
func (w WorkTime) EstimateEndsAt() (time.Time, bool) {
	if w.StartedAt == nil || w.Estimated <= 0 {
		return time.Time{}, false
	}
	return w.StartedAt.Add(max(w.Estimated-w.Actual, 0)), true
}

// Reminder is a point in time, optionally recurring, at which a task notifies.
type Reminder struct {
	// Date is the anchor instant. Time-of-day of every occurrence is taken from it.
	Date       time.Time
	RepeatType RepeatType

	// Days selects weekdays (0=Sunday..6) for weekly reminders and
	// days of month (1..31) for monthly reminders. Empty means "same as Date".
	Days []int

	Sound SoundType

	// Timezone is an optional IANA name used for calendar arithmetic.
	Timezone string

	// LastFiredAt is set when the reminder loop dispatched a notification.
	LastFiredAt *time.Time
}

// Clone returns a deep copy of the reminder.
func (r Reminder) Clone() Reminder {
	c := r
	c.Days = slices.Clone(r.Days)
	if r.LastFiredAt != nil {
		t := *r.LastFiredAt
		c.LastFiredAt = &t
	}
	return c
}

// SameSchedule reports whether o describes the same occurrences and firing
// history as r. Sound is ignored.
func (r Reminder) SameSchedule(o Reminder) bool {
	if !r.Date.Equal(o.Date) || r.RepeatType != o.RepeatType || r.Timezone != o.Timezone {
		return false
	}
	if !slices.Equal(r.Days, o.Days) {
		return false
	}
	switch {
	case r.LastFiredAt == nil || o.LastFiredAt == nil:
		return r.LastFiredAt == nil && o.LastFiredAt == nil
	default:
		return r.LastFiredAt.Equal(*o.LastFiredAt)
	}
}

// WorkSessionSettings configure the work/break cycle.
type WorkSessionSettings struct {
	TotalDuration       time.Duration
	BreakInterval       time.Duration
	BreakDuration       time.Duration
	AutoStartAfterBreak bool
	SoundEnabled        bool
}

// DefaultWorkSessionSettings returns the settings used when nothing was persisted.
func DefaultWorkSessionSettings() WorkSessionSettings {
	return WorkSessionSettings{
		TotalDuration:       60 * time.Minute,
		BreakInterval:       25 * time.Minute,
		BreakDuration:       90 * time.Second,
		AutoStartAfterBreak: true,
		SoundEnabled:        true,
	}
}

// Validate checks that every duration is positive.
func (s WorkSessionSettings) Validate() error {
	if s.TotalDuration <= 0 || s.BreakInterval <= 0 || s.BreakDuration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Break is a single pause inside a work session.
type Break struct {
	StartTime time.Time
	EndTime   time.Time
}

// WorkSession is an active work/break cycle. A nil *WorkSession means idle.
type WorkSession struct {
	ID        string
	StartTime time.Time

	// EndTime is the session deadline; resuming from pause extends it by the paused interval.
	EndTime time.Time

	Breaks   []Break
	Phase    Phase
	IsPaused bool
	PausedAt *time.Time

	// PausedTotal accumulates completed pauses.
	PausedTotal time.Duration

	// WorkStartedAt anchors the current work segment for break interval arithmetic.
	WorkStartedAt time.Time

	// NotificationIDs are pending notifications tied to this session.
	NotificationIDs []string
}

// CurrentBreak returns the most recent break, if any.
func (s *WorkSession) CurrentBreak() (*Break, bool) {
	if len(s.Breaks) == 0 {
		return nil, false
	}
	return &s.Breaks[len(s.Breaks)-1], true
}

// Clone returns a deep copy of the session.
func (s WorkSession) Clone() WorkSession {
	c := s
	c.Breaks = slices.Clone(s.Breaks)
	c.NotificationIDs = slices.Clone(s.NotificationIDs)
	if s.PausedAt != nil {
		t := *s.PausedAt
		c.PausedAt = &t
	}
	return c
}

// Preset is a named snapshot of work-session settings.
type Preset struct {
	ID       string
	Name     string
	Settings WorkSessionSettings
	BuiltIn  bool
}

// TaskFilter selects and orders tasks.
type TaskFilter struct {
	// Optional filters (nil = no filter applied)
	Category  *Category
	Priority  *Priority
	Completed *bool

	// Reminder conditions. Any of them excludes tasks without a reminder.
	RepeatType   *RepeatType
	Sound        *SoundType
	ReminderFrom *time.Time // inclusive, on Reminder.Date
	ReminderTo   *time.Time // inclusive, on Reminder.Date

	SortBy TaskSortField
}

// Validate checks the reminder date range.
func (f TaskFilter) Validate() error {
	if f.ReminderFrom != nil && f.ReminderTo != nil && f.ReminderFrom.After(*f.ReminderTo) {
		return ErrInvalidDateRange
	}
	return nil
}

func (f TaskFilter) hasReminderConditions() bool {
	return f.RepeatType != nil || f.Sound != nil || f.ReminderFrom != nil || f.ReminderTo != nil
}

// Matches reports whether t passes every condition of the filter.
func (f TaskFilter) Matches(t Task) bool {
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if !f.hasReminderConditions() {
		return true
	}

	r := t.Reminder
	if r == nil {
		return false
	}
	if f.RepeatType != nil && r.RepeatType != *f.RepeatType {
		return false
	}
	if f.Sound != nil && r.Sound != *f.Sound {
		return false
	}
	if f.ReminderFrom != nil && r.Date.Before(*f.ReminderFrom) {
		return false
	}
	if f.ReminderTo != nil && r.Date.After(*f.ReminderTo) {
		return false
	}
	return true
}

// Merge returns f with every condition set in o replacing its own.
func (f TaskFilter) Merge(o TaskFilter) TaskFilter {
	if o.Category != nil {
		f.Category = o.Category
	}
	if o.Priority != nil {
		f.Priority = o.Priority
	}
	if o.Completed != nil {
		f.Completed = o.Completed
	}
	if o.RepeatType != nil {
		f.RepeatType = o.RepeatType
	}
	if o.Sound != nil {
		f.Sound = o.Sound
	}
	if o.ReminderFrom != nil {
		f.ReminderFrom = o.ReminderFrom
	}
	if o.ReminderTo != nil {
		f.ReminderTo = o.ReminderTo
	}
	if o.SortBy != "" {
		f.SortBy = o.SortBy
	}
	return f
}

// FilterPreset is a named, saved TaskFilter.
type FilterPreset struct {
	ID        string
	Name      string
	Filter    TaskFilter
	CreatedAt time.Time
}

// CreateTaskParams holds validated-on-use input for a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    string
	Category    string
	Tags        []string
	Estimated   time.Duration
}

// UpdateTaskParams holds the fields to update on a task.
type UpdateTaskParams struct {
	TaskID string

	// UpdateMask specifies which fields to update.
	// Only fields in this list will be modified.
	UpdateMask []string

	// Field values (only applied if field is in UpdateMask)
	Title       *string
	Description *string
	Priority    *string
	Category    *string
	Tags        *[]string
	Estimated   *time.Duration
	Actual      *time.Duration
}

// ReminderInput is the unvalidated form of a reminder.
type ReminderInput struct {
	Date       time.Time
	RepeatType string
	Days       []int
	Sound      string
	Timezone   string
}

// SettingsPatch holds a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	TotalDuration       *time.Duration
	BreakInterval       *time.Duration
	BreakDuration       *time.Duration
	AutoStartAfterBreak *bool
	SoundEnabled        *bool
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s WorkSessionSettings) WorkSessionSettings {
	if p.TotalDuration != nil {
		s.TotalDuration = *p.TotalDuration
	}
	if p.BreakInterval != nil {
		s.BreakInterval = *p.BreakInterval
	}
	if p.BreakDuration != nil {
		s.BreakDuration = *p.BreakDuration
	}
	if p.AutoStartAfterBreak != nil {
		s.AutoStartAfterBreak = *p.AutoStartAfterBreak
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	return s
}
