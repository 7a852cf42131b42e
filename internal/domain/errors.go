package domain

import "errors"

// Domain errors returned by services and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTaskNotFound indicates the specified task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPresetNotFound indicates the specified preset does not exist.
	ErrPresetNotFound = errors.New("preset not found")

	// ErrFilterNotFound indicates the specified filter preset does not exist.
	ErrFilterNotFound = errors.New("filter not found")

	// ErrReminderNotSet indicates the task has no reminder attached.
	ErrReminderNotSet = errors.New("task has no reminder")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")
)

// Validation errors.
var (
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title must be 255 characters or less")
	ErrPresetNameInvalid = errors.New("preset name must be 1-64 characters")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidRepeatType = errors.New("invalid repeat type")
	ErrInvalidSoundType  = errors.New("invalid sound type")
	ErrInvalidTimezone   = errors.New("invalid timezone")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrReminderDateZero  = errors.New("reminder date is required")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrEmptyUpdateMask   = errors.New("update mask cannot be empty")
	ErrUnknownField      = errors.New("unknown field in update mask")
	ErrInvalidDateRange  = errors.New("range start must not be after its end")
)

// Work timer errors.
var (
	ErrWorkRunning    = errors.New("work timer already running")
	ErrWorkNotRunning = errors.New("work timer not running")
	ErrTaskCompleted  = errors.New("task is completed")
)

// Preset errors.
var (
	// ErrBuiltInPreset indicates an attempt to delete or overwrite a built-in preset.
	ErrBuiltInPreset = errors.New("built-in presets cannot be modified")
)
