package domain

// Priority represents how important a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns the ordering weight of the priority, higher first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Category groups tasks.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryOther    Category = "other"
)

// Rank returns the display order of the category, lowest first.
func (c Category) Rank() int {
	switch c {
	case CategoryWork:
		return 0
	case CategoryPersonal:
		return 1
	case CategoryShopping:
		return 2
	default:
		return 3
	}
}

// RepeatType selects the recurrence rule of a reminder.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

// SoundType is the presentational sound attached to a reminder.
type SoundType string

const (
	SoundDefault SoundType = "default"
	SoundBell    SoundType = "bell"
	SoundChime   SoundType = "chime"
	SoundGlass   SoundType = "glass"
	SoundTriTone SoundType = "tri-tone"
	SoundNote    SoundType = "note"
	SoundAurora  SoundType = "aurora"
)

// Phase is the sub-state of an active work session.
type Phase string

const (
	PhaseIdle  Phase = "idle"
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// TaskSortField selects the ordering of task listings.
type TaskSortField string

const (
	SortByCreated  TaskSortField = "created"
	SortByPriority TaskSortField = "priority"
	SortByCategory TaskSortField = "category"
)
