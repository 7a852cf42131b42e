package handler

import (
	"fmt"
	"math"
	"time"

	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/ptr"
)

// Durations cross the API as fractional minutes, times as RFC 3339.

// TaskDTO is the wire form of a task.
type TaskDTO struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Reminder    *ReminderDTO `json:"reminder,omitempty"`
	WorkTime    *WorkTimeDTO `json:"work_time,omitempty"`
}

// ReminderDTO is the wire form of a reminder.
type ReminderDTO struct {
	Date        time.Time  `json:"date"`
	RepeatType  string     `json:"repeat_type"`
	Days        []int      `json:"days,omitempty"`
	Sound       string     `json:"sound"`
	Timezone    string     `json:"timezone,omitempty"`
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
}

// WorkTimeDTO carries estimated and actual effort in minutes. StartedAt is
// set while the work timer runs; actual excludes the running interval.
type WorkTimeDTO struct {
	EstimatedMinutes float64    `json:"estimated_minutes"`
	ActualMinutes    float64    `json:"actual_minutes"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
}

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	EstimatedMinutes float64  `json:"estimated_minutes"`
}

// UpdateTaskRequest is the body of PATCH /v1/tasks/{id}.
type UpdateTaskRequest struct {
	UpdateMask       []string  `json:"update_mask"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	Priority         *string   `json:"priority"`
	Category         *string   `json:"category"`
	Tags             *[]string `json:"tags"`
	EstimatedMinutes *float64  `json:"estimated_minutes"`
	ActualMinutes    *float64  `json:"actual_minutes"`
}

// SetReminderRequest is the body of PUT /v1/tasks/{id}/reminder.
type SetReminderRequest struct {
	Date       time.Time `json:"date"`
	RepeatType string    `json:"repeat_type"`
	Days       []int     `json:"days"`
	Sound      string    `json:"sound"`
	Timezone   string    `json:"timezone"`
}

// OccurrencesResponse lists upcoming reminder instants.
type OccurrencesResponse struct {
	Occurrences []time.Time `json:"occurrences"`
}

// ListTasksResponse wraps a task listing.
type ListTasksResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

// FilterConditionDTO is the wire form of a saved task filter. Absent fields
// leave the condition unset.
type FilterConditionDTO struct {
	Category   *string    `json:"category,omitempty"`
	Priority   *string    `json:"priority,omitempty"`
	Completed  *bool      `json:"completed,omitempty"`
	RepeatType *string    `json:"repeat_type,omitempty"`
	Sound      *string    `json:"sound,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Sort       string     `json:"sort,omitempty"`
}

// FilterDTO is the wire form of a filter preset.
type FilterDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Condition FilterConditionDTO `json:"condition"`
	CreatedAt time.Time          `json:"created_at"`
}

// ListFiltersResponse wraps the saved filter presets.
type ListFiltersResponse struct {
	Filters []FilterDTO `json:"filters"`
}

// SaveFilterRequest is the body of POST /v1/filters.
type SaveFilterRequest struct {
	Name      string             `json:"name"`
	Condition FilterConditionDTO `json:"condition"`
}

// SettingsDTO is the wire form of work-session settings.
type SettingsDTO struct {
	TotalMinutes         float64 `json:"total_minutes"`
	BreakIntervalMinutes float64 `json:"break_interval_minutes"`
	BreakDurationMinutes float64 `json:"break_duration_minutes"`
	AutoStartAfterBreak  bool    `json:"auto_start_after_break"`
	SoundEnabled         bool    `json:"sound_enabled"`
}

// UpdateSettingsRequest is the body of PATCH /v1/settings; absent fields are kept.
type UpdateSettingsRequest struct {
	TotalMinutes         *float64 `json:"total_minutes"`
	BreakIntervalMinutes *float64 `json:"break_interval_minutes"`
	BreakDurationMinutes *float64 `json:"break_duration_minutes"`
	AutoStartAfterBreak  *bool    `json:"auto_start_after_break"`
	SoundEnabled         *bool    `json:"sound_enabled"`
}

// PresetDTO is the wire form of a preset.
type PresetDTO struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	BuiltIn  bool        `json:"built_in"`
	Settings SettingsDTO `json:"settings"`
}

// ListPresetsResponse wraps the preset catalogue.
type ListPresetsResponse struct {
	Presets []PresetDTO `json:"presets"`
}

// SavePresetRequest is the body of POST /v1/presets. Without settings the
// current settings are saved.
type SavePresetRequest struct {
	Name     string       `json:"name"`
	Settings *SettingsDTO `json:"settings"`
}

// BreakDTO is a single break of a session.
type BreakDTO struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SessionDTO is the wire form of the session state.
type SessionDTO struct {
	Active   bool   `json:"active"`
	ID       string `json:"id,omitempty"`
	Phase    string `json:"phase"`
	IsPaused bool   `json:"is_paused"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	PausedAt  *time.Time `json:"paused_at,omitempty"`
	Breaks    []BreakDTO `json:"breaks,omitempty"`

	ElapsedMinutes        float64 `json:"elapsed_minutes"`
	RemainingMinutes      float64 `json:"remaining_minutes"`
	UntilNextBreakMinutes float64 `json:"until_next_break_minutes"`
	BreakRemainingMinutes float64 `json:"break_remaining_minutes"`
	BreakCount            int     `json:"break_count"`
}

// NotificationDTO is a pending notification.
type NotificationDTO struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Body   string    `json:"body,omitempty"`
	FireAt time.Time `json:"fire_at"`
	Sound  string    `json:"sound,omitempty"`
}

// ListNotificationsResponse wraps pending notifications.
type ListNotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}

// maxMinutes is the largest minute count that fits a time.Duration.
var maxMinutes = float64(math.MaxInt64 / int64(time.Minute))

// fromMinutes converts wire minutes to a duration rounded to the millisecond.
// Negative, non-finite and overflowing values are rejected.
func fromMinutes(field string, m float64) (time.Duration, error) {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 || m > maxMinutes {
		return 0, errInvalidField{
			field: field,
			issue: fmt.Sprintf("must be between 0 and %.0f minutes", maxMinutes),
			err:   domain.ErrInvalidDuration,
		}
	}
	return time.Duration(math.Round(m*float64(time.Minute)/float64(time.Millisecond))) * time.Millisecond, nil
}

func durationPtr(field string, m *float64) (*time.Duration, error) {
	if m == nil {
		return nil, nil
	}
	d, err := fromMinutes(field, *m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MapTaskToDTO converts a domain task to its wire form.
func MapTaskToDTO(t domain.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if r := t.Reminder; r != nil {
		dto.Reminder = &ReminderDTO{
			Date:        r.Date,
			RepeatType:  string(r.RepeatType),
			Days:        r.Days,
			Sound:       string(r.Sound),
			Timezone:    r.Timezone,
			LastFiredAt: r.LastFiredAt,
		}
	}
	if wt := t.WorkTime; wt != nil {
		dto.WorkTime = &WorkTimeDTO{
			EstimatedMinutes: minutes(wt.Estimated),
			ActualMinutes:    minutes(wt.Actual),
			StartedAt:        wt.StartedAt,
		}
	}
	return dto
}

// MapFilterToDTO converts a filter preset to its wire form.
func MapFilterToDTO(p domain.FilterPreset) FilterDTO {
	f := p.Filter
	c := FilterConditionDTO{
		Completed: f.Completed,
		From:      f.ReminderFrom,
		To:        f.ReminderTo,
		Sort:      string(f.SortBy),
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
		c.Sound = ptr.To(string(*f.Sound))
	}
	return FilterDTO{
		ID:        p.ID,
		Name:      p.Name,
		Condition: c,
		CreatedAt: p.CreatedAt,
	}
}

// toDomain validates every set condition.
func (c FilterConditionDTO) toDomain() (domain.TaskFilter, error) {
	f := domain.TaskFilter{
		Completed:    c.Completed,
		ReminderFrom: c.From,
		ReminderTo:   c.To,
		SortBy:       domain.TaskSortField(c.Sort),
	}
	if c.Category != nil {
		v, err := domain.NewCategory(*c.Category)
		if err != nil {
			return f, err
		}
		f.Category = &v
	}
	if c.Priority != nil {
		v, err := domain.NewPriority(*c.Priority)
		if err != nil {
			return f, err
		}
		f.Priority = &v
	}
	if c.RepeatType != nil {
		v, err := domain.NewRepeatType(*c.RepeatType)
		if err != nil {
			return f, err
		}
		f.RepeatType = &v
	}
	if c.Sound != nil {
		v, err := domain.NewSoundType(*c.Sound)
		if err != nil {
			return f, err
		}
		f.Sound = &v
	}
	return f, nil
}

// MapSettingsToDTO converts settings to their wire form.
func MapSettingsToDTO(s domain.WorkSessionSettings) SettingsDTO {
	return SettingsDTO{
		TotalMinutes:         minutes(s.TotalDuration),
		BreakIntervalMinutes: minutes(s.BreakInterval),
		BreakDurationMinutes: minutes(s.BreakDuration),
		AutoStartAfterBreak:  s.AutoStartAfterBreak,
		SoundEnabled:         s.SoundEnabled,
	}
}

func (d SettingsDTO) toDomain() (domain.WorkSessionSettings, error) {
	var (
		s   domain.WorkSessionSettings
		err error
	)
	if s.TotalDuration, err = fromMinutes("total_minutes", d.TotalMinutes); err != nil {
		return s, err
	}
	if s.BreakInterval, err = fromMinutes("break_interval_minutes", d.BreakIntervalMinutes); err != nil {
		return s, err
	}
	if s.BreakDuration, err = fromMinutes("break_duration_minutes", d.BreakDurationMinutes); err != nil {
		return s, err
	}
	s.AutoStartAfterBreak = d.AutoStartAfterBreak
	s.SoundEnabled = d.SoundEnabled
	return s, nil
}

func (r UpdateSettingsRequest) toPatch() (domain.SettingsPatch, error) {
	p := domain.SettingsPatch{
		AutoStartAfterBreak: r.AutoStartAfterBreak,
		SoundEnabled:        r.SoundEnabled,
	}
	var err error
	if p.TotalDuration, err = durationPtr("total_minutes", r.TotalMinutes); err != nil {
		return p, err
	}
	if p.BreakInterval, err = durationPtr("break_interval_minutes", r.BreakIntervalMinutes); err != nil {
		return p, err
	}
	if p.BreakDuration, err = durationPtr("break_duration_minutes", r.BreakDurationMinutes); err != nil {
		return p, err
	}
	return p, nil
}

// MapPresetToDTO converts a preset to its wire form.
func MapPresetToDTO(p domain.Preset) PresetDTO {
	return PresetDTO{
		ID:       p.ID,
		Name:     p.Name,
		BuiltIn:  p.BuiltIn,
		Settings: MapSettingsToDTO(p.Settings),
	}
}

// MapStateToDTO converts the session state to its wire form.
func MapStateToDTO(st worksession.State) SessionDTO {
	snap := st.Snapshot
	dto := SessionDTO{
		Active:                snap.Active,
		Phase:                 string(snap.Phase),
		IsPaused:              snap.IsPaused,
		ElapsedMinutes:        minutes(snap.Elapsed),
		RemainingMinutes:      minutes(snap.Remaining),
		UntilNextBreakMinutes: minutes(snap.UntilNextBreak),
		BreakRemainingMinutes: minutes(snap.BreakRemaining),
		BreakCount:            snap.BreakCount,
	}
	if s := st.Session; s != nil {
		dto.ID = s.ID
		dto.StartTime = &s.StartTime
		dto.EndTime = &s.EndTime
		dto.PausedAt = s.PausedAt
		for _, b := range s.Breaks {
			dto.Breaks = append(dto.Breaks, BreakDTO(b))
		}
	}
	return dto
}

// MapNotificationToDTO converts a pending notification to its wire form.
func MapNotificationToDTO(n notify.Notification) NotificationDTO {
	return NotificationDTO{
		ID:     n.ID,
		Title:  n.Title,
		Body:   n.Body,
		FireAt: n.FireAt,
		Sound:  string(n.Sound),
	}
}
