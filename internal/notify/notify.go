// Package notify schedules user-facing notifications and delivers them to a sink.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Notification is a message to show the user at FireAt.
type Notification struct {
	ID     string
	Title  string
	Body   string
	FireAt time.Time

	// Repeat is informational for sinks that render recurrence; delivery is one-shot.
	Repeat domain.RepeatType
	Sound  domain.SoundType
}

// Dispatcher schedules and cancels notifications. Implementations must be
// safe for concurrent use. Calls are fire-and-forget from the caller's view:
// errors are logged, never retried.
type Dispatcher interface {
	Schedule(ctx context.Context, n Notification) error
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	ListPending(ctx context.Context) ([]Notification, error)
}

// Sink presents a notification to the user.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// Notification id formats used by the services.
const (
	breakIDFormat    = "break_%s_%d"
	workIDFormat     = "work_%s_%d"
	completeIDFormat = "complete_%s_%d"
	reminderIDFormat = "reminder_%s"
	overrunIDFormat  = "worktime_%s"
)

// BreakID names the "break starting" notification of a session.
func BreakID(sessionID string, at time.Time) string {
	return fmt.Sprintf(breakIDFormat, sessionID, at.UnixMilli())
}

// WorkID names the "back to work" notification of a session.
func WorkID(sessionID string, at time.Time) string {
	return fmt.Sprintf(workIDFormat, sessionID, at.UnixMilli())
}

// CompleteID names the "session complete" notification of a session.
func CompleteID(sessionID string, at time.Time) string {
	return fmt.Sprintf(completeIDFormat, sessionID, at.UnixMilli())
}

// ReminderID names the pending notification of a task reminder.
func ReminderID(taskID string) string {
	return fmt.Sprintf(reminderIDFormat, taskID)
}

// ReminderNotification builds the notification shown when a task reminder fires.
func ReminderNotification(task domain.Task, at time.Time) Notification {
	body := task.Description
	if body == "" {
		body = "Reminder"
	}
	n := Notification{
		ID:     ReminderID(task.ID),
		Title:  task.Title,
		Body:   body,
		FireAt: at,
	}
	if task.Reminder != nil {
		n.Repeat = task.Reminder.RepeatType
		n.Sound = task.Reminder.Sound
	}
	return n
}

// WorkOverrunID names the "estimate used up" notification of a task's work timer.
func WorkOverrunID(taskID string) string {
	return fmt.Sprintf(overrunIDFormat, taskID)
}

// WorkOverrunNotification builds the notification shown when a running work
// timer uses up the task's estimate.
func WorkOverrunNotification(task domain.Task, at time.Time) Notification {
	var estimated time.Duration
	if task.WorkTime != nil {
		estimated = task.WorkTime.Estimated
	}
	return Notification{
		ID:     WorkOverrunID(task.ID),
		Title:  "Work time is up",
		Body:   fmt.Sprintf("%s: estimated %s elapsed", task.Title, estimated),
		FireAt: at,
		Sound:  domain.SoundDefault,
	}
}
