package kvstore

import (
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/ptr"
)

// Durations in settings and work time are stored as fractional minutes,
// reminder instants as Unix milliseconds.

type taskRecord struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Completed   bool            `json:"completed"`
	Priority    string          `json:"priority"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Reminder    *reminderRecord `json:"reminder,omitempty"`
	WorkTime    *workTimeRecord `json:"workTime,omitempty"`
}

type reminderRecord struct {
	Date        int64  `json:"date"`
	RepeatType  string `json:"repeatType"`
	Days        []int  `json:"days,omitempty"`
	Sound       string `json:"sound"`
	Timezone    string `json:"timezone,omitempty"`
	LastFiredAt *int64 `json:"lastFiredAt,omitempty"`
}

type workTimeRecord struct {
	Estimated       float64    `json:"estimated"`
	Actual          float64    `json:"actual"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	OverrunNotified bool       `json:"overrunNotified,omitempty"`
}

type filterRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Condition conditionRecord `json:"condition"`
	CreatedAt time.Time       `json:"createdAt"`
}

type conditionRecord struct {
	Category   *string          `json:"category,omitempty"`
	Priority   *string          `json:"priority,omitempty"`
	Completed  *bool            `json:"completed,omitempty"`
	RepeatType *string          `json:"repeatType,omitempty"`
	SoundType  *string          `json:"soundType,omitempty"`
	DateRange  *dateRangeRecord `json:"dateRange,omitempty"`
	SortBy     string           `json:"sortBy,omitempty"`
}

type dateRangeRecord struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

type settingsRecord struct {
	TotalDuration       float64 `json:"totalDuration"`
	BreakInterval       float64 `json:"breakInterval"`
	BreakDuration       float64 `json:"breakDuration"`
	AutoStartAfterBreak bool    `json:"autoStartAfterBreak"`
	SoundEnabled        bool    `json:"soundEnabled"`
}

type presetRecord struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Settings settingsRecord `json:"settings"`
}

type breakRecord struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type sessionRecord struct {
	ID              string        `json:"id"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	Breaks          []breakRecord `json:"breaks"`
	Phase           string        `json:"phase"`
	IsPaused        bool          `json:"isPaused"`
	PausedAt        *time.Time    `json:"pausedAt,omitempty"`
	PausedTotalMs   int64         `json:"pausedTotalMs"`
	WorkStartedAt   time.Time     `json:"workStartedAt"`
	NotificationIDs []string      `json:"notificationIds,omitempty"`
}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}

func fromMinutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute)).Round(time.Millisecond)
}

func taskToRecord(t domain.Task) taskRecord {
	rec := taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.Reminder != nil {
		rec.Reminder = reminderToRecord(*t.Reminder)
	}
	if wt := t.WorkTime; wt != nil {
		rec.WorkTime = &workTimeRecord{
			Estimated:       minutes(wt.Estimated),
			Actual:          minutes(wt.Actual),
			OverrunNotified: wt.OverrunNotified,
		}
		if wt.StartedAt != nil {
			at := wt.StartedAt.UTC()
			rec.WorkTime.StartedAt = &at
		}
	}
	return rec
}

func reminderToRecord(r domain.Reminder) *reminderRecord {
	rec := &reminderRecord{
		Date:       r.Date.UnixMilli(),
		RepeatType: string(r.RepeatType),
		Days:       r.Days,
		Sound:      string(r.Sound),
		Timezone:   r.Timezone,
	}
	if r.LastFiredAt != nil {
		ms := r.LastFiredAt.UnixMilli()
		rec.LastFiredAt = &ms
	}
	return rec
}

// recordToTask is lenient: unknown enum values fall back to defaults so that a
// hand-edited file still loads.
func recordToTask(rec taskRecord) domain.Task {
	t := domain.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Completed:   rec.Completed,
		Priority:    domain.PriorityMedium,
		Category:    domain.CategoryOther,
		Tags:        rec.Tags,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if p, err := domain.NewPriority(rec.Priority); err == nil {
		t.Priority = p
	}
	if c, err := domain.NewCategory(rec.Category); err == nil {
		t.Category = c
	}
	if rec.Reminder != nil {
		r := recordToReminder(*rec.Reminder)
		t.Reminder = &r
	}
	if rec.WorkTime != nil {
		t.WorkTime = &domain.WorkTime{
			Estimated:       fromMinutes(rec.WorkTime.Estimated),
			Actual:          fromMinutes(rec.WorkTime.Actual),
			StartedAt:       rec.WorkTime.StartedAt,
			OverrunNotified: rec.WorkTime.OverrunNotified,
		}
	}
	return t
}

func recordToReminder(rec reminderRecord) domain.Reminder {
	r := domain.Reminder{
		Date:       time.UnixMilli(rec.Date).UTC(),
		RepeatType: domain.RepeatNone,
		Days:       rec.Days,
		Sound:      domain.SoundDefault,
		Timezone:   rec.Timezone,
	}
	if rt, err := domain.NewRepeatType(rec.RepeatType); err == nil {
		r.RepeatType = rt
	}
	if s, err := domain.NewSoundType(rec.Sound); err == nil {
		r.Sound = s
	}
	if rec.LastFiredAt != nil {
		at := time.UnixMilli(*rec.LastFiredAt).UTC()
		r.LastFiredAt = &at
	}
	return r
}

func filterToRecord(p domain.FilterPreset) filterRecord {
	f := p.Filter
	c := conditionRecord{
		Completed: f.Completed,
		SortBy:    string(f.SortBy),
	}
	if f.Category != nil {
		c.Category = ptr.To(string(*f.Category))
	}
	if f.Priority != nil {
		c.Priority = ptr.To(string(*f.Priority))
	}
	if f.RepeatType != nil {
		c.RepeatType = ptr.To(string(*f.RepeatType))
	}
	if f.Sound != nil {
		c.SoundType = ptr.To(string(*f.Sound))
	}
	if f.ReminderFrom != nil || f.ReminderTo != nil {
		c.DateRange = &dateRangeRecord{StartDate: f.ReminderFrom, EndDate: f.ReminderTo}
	}
	return filterRecord{
		ID:        p.ID,
		Name:      p.Name,
		Condition: c,
		CreatedAt: p.CreatedAt.UTC(),
	}
}

// recordToFilter drops conditions it cannot parse, like recordToTask.
func recordToFilter(rec filterRecord) domain.FilterPreset {
	c := rec.Condition
	f := domain.TaskFilter{
		Completed: c.Completed,
		SortBy:    domain.TaskSortField(c.SortBy),
	}
	if c.Category != nil {
		if v, err := domain.NewCategory(*c.Category); err == nil {
			f.Category = &v
		}
	}
	if c.Priority != nil {
		if v, err := domain.NewPriority(*c.Priority); err == nil {
			f.Priority = &v
		}
	}
	if c.RepeatType != nil {
		if v, err := domain.NewRepeatType(*c.RepeatType); err == nil {
			f.RepeatType = &v
		}
	}
	if c.SoundType != nil {
		if v, err := domain.NewSoundType(*c.SoundType); err == nil {
			f.Sound = &v
		}
	}
	if _, err := domain.NewTaskSortField(c.SortBy); err != nil {
		f.SortBy = ""
	}
	if c.DateRange != nil {
		f.ReminderFrom = c.DateRange.StartDate
		f.ReminderTo = c.DateRange.EndDate
	}
	return domain.FilterPreset{
		ID:        rec.ID,
		Name:      rec.Name,
		Filter:    f,
		CreatedAt: rec.CreatedAt,
	}
}

func settingsToRecord(s domain.WorkSessionSettings) settingsRecord {
	return settingsRecord{
		TotalDuration:       minutes(s.TotalDuration),
		BreakInterval:       minutes(s.BreakInterval),
		BreakDuration:       minutes(s.BreakDuration),
		AutoStartAfterBreak: s.AutoStartAfterBreak,
		SoundEnabled:        s.SoundEnabled,
	}
}

func recordToSettings(rec settingsRecord) domain.WorkSessionSettings {
	return domain.WorkSessionSettings{
		TotalDuration:       fromMinutes(rec.TotalDuration),
		BreakInterval:       fromMinutes(rec.BreakInterval),
		BreakDuration:       fromMinutes(rec.BreakDuration),
		AutoStartAfterBreak: rec.AutoStartAfterBreak,
		SoundEnabled:        rec.SoundEnabled,
	}
}

func sessionToRecord(s domain.WorkSession) sessionRecord {
	rec := sessionRecord{
		ID:              s.ID,
		StartTime:       s.StartTime.UTC(),
		EndTime:         s.EndTime.UTC(),
		Breaks:          make([]breakRecord, 0, len(s.Breaks)),
		Phase:           string(s.Phase),
		IsPaused:        s.IsPaused,
		PausedTotalMs:   s.PausedTotal.Milliseconds(),
		WorkStartedAt:   s.WorkStartedAt.UTC(),
		NotificationIDs: s.NotificationIDs,
	}
	for _, b := range s.Breaks {
		rec.Breaks = append(rec.Breaks, breakRecord{StartTime: b.StartTime.UTC(), EndTime: b.EndTime.UTC()})
	}
	if s.PausedAt != nil {
		at := s.PausedAt.UTC()
		rec.PausedAt = &at
	}
	return rec
}

func recordToSession(rec sessionRecord) domain.WorkSession {
	s := domain.WorkSession{
		ID:              rec.ID,
		StartTime:       rec.StartTime,
		EndTime:         rec.EndTime,
		Phase:           domain.Phase(rec.Phase),
		IsPaused:        rec.IsPaused,
		PausedAt:        rec.PausedAt,
		PausedTotal:     time.Duration(rec.PausedTotalMs) * time.Millisecond,
		WorkStartedAt:   rec.WorkStartedAt,
		NotificationIDs: rec.NotificationIDs,
	}
	for _, b := range rec.Breaks {
		s.Breaks = append(s.Breaks, domain.Break{StartTime: b.StartTime, EndTime: b.EndTime})
	}
	if s.Phase != domain.PhaseWork && s.Phase != domain.PhaseBreak {
		s.Phase = domain.PhaseWork
	}
	return s
}
