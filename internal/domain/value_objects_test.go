package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/ptr"
)

func TestNewTitle(t *testing.T) {
	title, err := NewTitle("  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", title.String())

	_, err = NewTitle("   ")
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = NewTitle(strings.Repeat("a", 256))
	assert.ErrorIs(t, err, ErrTitleTooLong)

	_, err = NewTitle(strings.Repeat("é", 255))
	assert.NoError(t, err)
}

func TestNewRepeatType(t *testing.T) {
	tests := []struct {
		in   string
		want RepeatType
	}{
		{"", RepeatNone},
		{"none", RepeatNone},
		{"daily", RepeatDaily},
		{"Day", RepeatDaily},
		{"week", RepeatWeekly},
		{"WEEKLY", RepeatWeekly},
		{"month", RepeatMonthly},
		{"monthly", RepeatMonthly},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewRepeatType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewRepeatType("yearly")
	assert.True(t, errors.Is(err, ErrInvalidRepeatType))
}

func TestNewPriorityAndCategoryDefaults(t *testing.T) {
	p, err := NewPriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	c, err := NewCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, c)

	_, err = NewPriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = NewCategory("errands")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestPriorityWeight(t *testing.T) {
	assert.Greater(t, PriorityHigh.Weight(), PriorityMedium.Weight())
	assert.Greater(t, PriorityMedium.Weight(), PriorityLow.Weight())
}

func TestNewSoundType(t *testing.T) {
	s, err := NewSoundType("Chime")
	require.NoError(t, err)
	assert.Equal(t, SoundChime, s)

	_, err = NewSoundType("klaxon")
	assert.ErrorIs(t, err, ErrInvalidSoundType)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = LoadLocation("Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestWorkSessionSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultWorkSessionSettings().Validate())

	s := DefaultWorkSessionSettings()
	s.BreakDuration = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidDuration)
}

func TestSettingsPatch_Apply(t *testing.T) {
	base := DefaultWorkSessionSettings()
	patched := SettingsPatch{
		BreakInterval: ptr.To(50 * time.Minute),
		SoundEnabled:  ptr.To(false),
	}.Apply(base)

	assert.Equal(t, 50*time.Minute, patched.BreakInterval)
	assert.False(t, patched.SoundEnabled)
	assert.Equal(t, base.TotalDuration, patched.TotalDuration)
	assert.Equal(t, base.AutoStartAfterBreak, patched.AutoStartAfterBreak)
}

func TestUpdateTaskParams_Validate(t *testing.T) {
	assert.ErrorIs(t, UpdateTaskParams{}.Validate(), ErrEmptyUpdateMask)
	assert.ErrorIs(t, UpdateTaskParams{UpdateMask: []string{"status"}}.Validate(), ErrUnknownField)
	assert.ErrorIs(t, UpdateTaskParams{UpdateMask: []string{"title"}}.Validate(), ErrTitleRequired)
	assert.NoError(t, UpdateTaskParams{UpdateMask: []string{"title"}, Title: ptr.To("x")}.Validate())
}

func TestTaskClone_IsDeep(t *testing.T) {
	fired := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	task := Task{
		ID:       "t1",
		Tags:     []string{"a"},
		Reminder: &Reminder{Days: []int{1}, LastFiredAt: &fired},
	}

	c := task.Clone()
	c.Tags[0] = "b"
	c.Reminder.Days[0] = 5
	*c.Reminder.LastFiredAt = fired.Add(time.Hour)

	assert.Equal(t, "a", task.Tags[0])
	assert.Equal(t, 1, task.Reminder.Days[0])
	assert.Equal(t, fired, *task.Reminder.LastFiredAt)
}
