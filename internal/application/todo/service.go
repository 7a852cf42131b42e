package todo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/ptr"
	"github.com/rezkam/pomotodo/internal/recurring"
	"github.com/rezkam/pomotodo/internal/storage"
)

const (
	// MaxOccurrencePreview caps NextOccurrences.
	MaxOccurrencePreview = 50

	occurrenceHorizonYears = 10
)

// Service provides business logic for task and reminder management.
// Tasks are held in memory and persisted through the Repository after every change.
type Service struct {
	repo       Repository
	dispatcher notify.Dispatcher
	engine     *recurring.Engine
	clock      clock.Clock

	mu      sync.Mutex
	tasks   []domain.Task // creation order
	filters []domain.FilterPreset
}

// NewService creates a new todo service.
func NewService(repo Repository, dispatcher notify.Dispatcher, engine *recurring.Engine, clk clock.Clock) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		engine:     engine,
		clock:      clk,
	}
}

// Load replaces the in-memory task list with the persisted one and schedules
// the upcoming notification of every active reminder. A missing or unreadable
// record leaves the list empty.
func (s *Service) Load(ctx context.Context) {
	tasks, err := s.repo.LoadTasks(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.DebugContext(ctx, "no saved tasks, starting empty")
		tasks = nil
	case err != nil:
		slog.WarnContext(ctx, "failed to load tasks, starting empty", "error", err)
		tasks = nil
	}

	filters, err := s.repo.LoadFilters(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		filters = nil
	case err != nil:
		slog.WarnContext(ctx, "failed to load filters, starting empty", "error", err)
		filters = nil
	}

	s.mu.Lock()
	s.tasks = tasks
	s.filters = filters
	active := s.activeRemindersLocked()
	s.mu.Unlock()

	for _, t := range active {
		s.scheduleReminder(ctx, t)
	}
	slog.InfoContext(ctx, "tasks loaded",
		"count", len(tasks),
		"active_reminders", len(active),
		"filters", len(filters))
}

// CreateTask validates params and appends a new task.
func (s *Service) CreateTask(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error) {
	title, err := domain.NewTitle(params.Title)
	if err != nil {
		return nil, err
	}
	priority, err := domain.NewPriority(params.Priority)
	if err != nil {
		return nil, err
	}
	category, err := domain.NewCategory(params.Category)
	if err != nil {
		return nil, err
	}
	if params.Estimated < 0 {
		return nil, fmt.Errorf("%w: estimated", domain.ErrInvalidDuration)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.clock.Now().UTC()
	task := domain.Task{
		ID:          id.String(),
		Title:       title.String(),
		Description: strings.TrimSpace(params.Description),
		Priority:    priority,
		Category:    category,
		Tags:        normalizeTags(params.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if params.Estimated > 0 {
		task.WorkTime = &domain.WorkTime{Estimated: params.Estimated}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.tasks), task)
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created", "task_id", task.ID)
	return ptr.To(task.Clone()), nil
}

// GetTask returns a task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}
	return ptr.To(s.tasks[i].Clone()), nil
}

// UpdateTask applies the fields named in the update mask.
func (s *Service) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(params.TaskID)
	if err != nil {
		return nil, err
	}

	task := s.tasks[i].Clone()
	if err := applyUpdate(&task, params); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.clock.Now().UTC()

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	if task.HasActiveReminder() && params.Has("title") {
		s.scheduleReminder(ctx, task)
	}
	return ptr.To(task.Clone()), nil
}

func applyUpdate(task *domain.Task, params domain.UpdateTaskParams) error {
	for _, field := range params.UpdateMask {
		switch field {
		case "title":
			title, err := domain.NewTitle(*params.Title)
			if err != nil {
				return err
			}
			task.Title = title.String()
		case "description":
			task.Description = strings.TrimSpace(ptr.Deref(params.Description, ""))
		case "priority":
			p, err := domain.NewPriority(ptr.Deref(params.Priority, ""))
			if err != nil {
				return err
			}
			task.Priority = p
		case "category":
			c, err := domain.NewCategory(ptr.Deref(params.Category, ""))
			if err != nil {
				return err
			}
			task.Category = c
		case "tags":
			var tags []string
			if params.Tags != nil {
				tags = *params.Tags
			}
			task.Tags = normalizeTags(tags)
		case "estimated":
			workTime(task).Estimated = ptr.Deref(params.Estimated, 0)
		case "actual":
			workTime(task).Actual = ptr.Deref(params.Actual, 0)
		}
	}
	if task.WorkTime != nil && task.WorkTime.IsZero() {
		task.WorkTime = nil
	}
	return nil
}

func workTime(task *domain.Task) *domain.WorkTime {
	if task.WorkTime == nil {
		task.WorkTime = &domain.WorkTime{}
	}
	return task.WorkTime
}

// ToggleTask flips the completion flag. Completing a task cancels its pending
// reminder and stops its work timer; reopening it schedules the reminder again.
func (s *Service) ToggleTask(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	task := s.tasks[i].Clone()
	task.Completed = !task.Completed
	task.UpdatedAt = now
	stopped := task.Completed && task.WorkTime != nil && task.WorkTime.Running()
	if stopped {
		stopWork(task.WorkTime, now)
	}

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	switch {
	case task.HasActiveReminder():
		s.scheduleReminder(ctx, task)
	case task.Reminder != nil:
		s.cancelReminder(ctx, task.ID)
	}
	if stopped {
		s.cancelWorkOverrun(ctx, task.ID)
	}
	return ptr.To(task.Clone()), nil
}

// DeleteTask removes a task and cancels its pending reminder.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return err
	}

	next := slices.Delete(slices.Clone(s.tasks), i, i+1)
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}

	s.cancelReminder(ctx, id)
	s.cancelWorkOverrun(ctx, id)
	slog.InfoContext(ctx, "task deleted", "task_id", id)
	return nil
}

// SetReminder replaces the task's reminder. The firing history is reset and the
// next occurrence is scheduled. Out-of-range days are kept as given; the
// recurrence engine ignores them.
func (s *Service) SetReminder(ctx context.Context, id string, in domain.ReminderInput) (*domain.Task, error) {
	if in.Date.IsZero() {
		return nil, domain.ErrReminderDateZero
	}
	repeat, err := domain.NewRepeatType(in.RepeatType)
	if err != nil {
		return nil, err
	}
	sound, err := domain.NewSoundType(in.Sound)
	if err != nil {
		return nil, err
	}
	if _, err := domain.LoadLocation(in.Timezone); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}

	task := s.tasks[i].Clone()
	task.Reminder = &domain.Reminder{
		Date:       in.Date.UTC(),
		RepeatType: repeat,
		Days:       slices.Clone(in.Days),
		Sound:      sound,
		Timezone:   in.Timezone,
	}
	task.UpdatedAt = s.clock.Now().UTC()

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	if task.HasActiveReminder() {
		s.scheduleReminder(ctx, task)
	}
	slog.InfoContext(ctx, "reminder set", "task_id", id, "repeat", repeat)
	return ptr.To(task.Clone()), nil
}

// RemoveReminder detaches the task's reminder and cancels its notification.
func (s *Service) RemoveReminder(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return nil, err
	}
	if s.tasks[i].Reminder == nil {
		return nil, domain.ErrReminderNotSet
	}

	task := s.tasks[i].Clone()
	task.Reminder = nil
	task.UpdatedAt = s.clock.Now().UTC()

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	s.cancelReminder(ctx, id)
	return ptr.To(task.Clone()), nil
}

// FindTasks returns the tasks matching filter in the requested order.
// Reminder conditions only match tasks that have a reminder.
// Newest first by default; priority sorts high first; category sorts in
// display order. Ties keep creation order.
func (s *Service) FindTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	sortBy, err := domain.NewTaskSortField(string(filter.SortBy))
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	result := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Matches(t) {
			result = append(result, t.Clone())
		}
	}
	s.mu.Unlock()

	switch sortBy {
	case domain.SortByPriority:
		slices.SortStableFunc(result, func(a, b domain.Task) int {
			return cmp.Compare(b.Priority.Weight(), a.Priority.Weight())
		})
	case domain.SortByCategory:
		slices.SortStableFunc(result, func(a, b domain.Task) int {
			return cmp.Compare(a.Category.Rank(), b.Category.Rank())
		})
	default:
		slices.SortStableFunc(result, func(a, b domain.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return result, nil
}

// ActiveReminders returns the tasks whose reminder the polling loop must evaluate.
func (s *Service) ActiveReminders(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRemindersLocked(), nil
}

func (s *Service) activeRemindersLocked() []domain.Task {
	var active []domain.Task
	for _, t := range s.tasks {
		if t.HasActiveReminder() {
			active = append(active, t.Clone())
		}
	}
	return active
}

// MarkReminderFired records that the task's reminder fired at the given instant
// and schedules its next occurrence, if any. evaluated is the reminder the
// polling loop found due; when the task was deleted, completed or given a
// different reminder since, the call does nothing.
func (s *Service) MarkReminderFired(ctx context.Context, id string, evaluated domain.Reminder, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		slog.DebugContext(ctx, "fired reminder belongs to a deleted task", "task_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	current := s.tasks[i]
	if !current.HasActiveReminder() || !current.Reminder.SameSchedule(evaluated) {
		slog.DebugContext(ctx, "reminder changed since it fired, not recording", "task_id", id)
		return nil
	}

	task := current.Clone()
	fired := at.UTC()
	task.Reminder.LastFiredAt = &fired

	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}

	s.scheduleReminder(ctx, task)
	return nil
}

// NextOccurrences previews up to n occurrences of the task's reminder at or after the given instant.
func (s *Service) NextOccurrences(ctx context.Context, id string, after time.Time, n int) ([]time.Time, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Reminder == nil {
		return nil, domain.ErrReminderNotSet
	}
	if n <= 0 {
		n = 1
	}
	n = min(n, MaxOccurrencePreview)

	return s.engine.OccurrencesBetween(*task.Reminder, after, after.AddDate(occurrenceHorizonYears, 0, 0), n), nil
}

// commitLocked persists next and, on success, makes it the in-memory state.
func (s *Service) commitLocked(ctx context.Context, next []domain.Task) error {
	if err := s.repo.SaveTasks(ctx, next); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	s.tasks = next
	return nil
}

func (s *Service) indexLocked(id string) (int, error) {
	if id == "" {
		return -1, domain.ErrTaskNotFound
	}
	i := slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return i, nil
}

// scheduleReminder queues the task's next due occurrence, replacing any pending one.
// Dispatcher failures are logged; the polling loop still fires the reminder.
func (s *Service) scheduleReminder(ctx context.Context, task domain.Task) {
	r := task.Reminder
	due := s.engine.NextDue(*r, r.LastFiredAt)
	if due == nil {
		s.cancelReminder(ctx, task.ID)
		return
	}

	err := s.dispatcher.Schedule(ctx, notify.ReminderNotification(task, *due))
	if err != nil {
		slog.WarnContext(ctx, "failed to schedule reminder", "task_id", task.ID, "error", err)
	}
}

func (s *Service) cancelReminder(ctx context.Context, id string) {
	if err := s.dispatcher.Cancel(ctx, notify.ReminderID(id)); err != nil {
		slog.WarnContext(ctx, "failed to cancel reminder", "task_id", id, "error", err)
	}
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}
