package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if utf8.RuneCountInString(s) > 255 {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// NewPriority validates and creates a Priority.
// Empty input defaults to medium.
func NewPriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}

	priority := Priority(strings.ToLower(s))

	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return priority, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPriority, s)
	}
}

// NewCategory validates and creates a Category.
// Empty input defaults to other.
func NewCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}

	category := Category(strings.ToLower(s))

	switch category {
	case CategoryWork, CategoryPersonal, CategoryShopping, CategoryOther:
		return category, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, s)
	}
}

// NewRepeatType validates and creates a RepeatType.
// Accepts both the adjective form ("daily") and the unit form ("day").
// Empty input means no repetition.
func NewRepeatType(s string) (RepeatType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RepeatNone, nil
	case "daily", "day":
		return RepeatDaily, nil
	case "weekly", "week":
		return RepeatWeekly, nil
	case "monthly", "month":
		return RepeatMonthly, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidRepeatType, s)
	}
}

// NewSoundType validates and creates a SoundType.
func NewSoundType(s string) (SoundType, error) {
	if s == "" {
		return SoundDefault, nil
	}

	sound := SoundType(strings.ToLower(s))

	switch sound {
	case SoundDefault, SoundBell, SoundChime, SoundGlass, SoundTriTone, SoundNote, SoundAurora:
		return sound, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSoundType, s)
	}
}

// NewTaskSortField validates and creates a TaskSortField.
// Empty input sorts by creation date.
func NewTaskSortField(s string) (TaskSortField, error) {
	if s == "" {
		return SortByCreated, nil
	}

	field := TaskSortField(strings.ToLower(s))

	switch field {
	case SortByCreated, SortByPriority, SortByCategory:
		return field, nil
	case "date":
		return SortByCreated, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSortField, s)
	}
}

// LoadLocation resolves an IANA timezone name.
// Empty input returns nil so callers can fall back to their own default.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return loc, nil
}
