package todo

import (
	"context"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Repository persists the task list as a whole. The list is small and written
// after every mutation; last write wins.
type Repository interface {
	// LoadTasks returns every persisted task.
	// Returns storage.ErrNotFound when nothing was saved yet.
	LoadTasks(ctx context.Context) ([]domain.Task, error)

	// SaveTasks replaces the persisted task list.
	SaveTasks(ctx context.Context, tasks []domain.Task) error

	// LoadFilters returns the saved filter presets.
	// Returns storage.ErrNotFound when nothing was saved yet.
	LoadFilters(ctx context.Context) ([]domain.FilterPreset, error)

	// SaveFilters replaces the saved filter presets.
	SaveFilters(ctx context.Context, filters []domain.FilterPreset) error
}
