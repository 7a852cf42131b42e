package todo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rezkam/pomotodo/internal/domain"
)

// MaxFilterNameLength is the maximum filter preset name length in runes.
const MaxFilterNameLength = 64

// Filters returns the saved filter presets in creation order.
func (s *Service) Filters(ctx context.Context) []domain.FilterPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.filters)
}

// Filter returns a saved filter preset by ID.
func (s *Service) Filter(ctx context.Context, id string) (domain.FilterPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.filterIndexLocked(id)
	if i < 0 {
		return domain.FilterPreset{}, fmt.Errorf("%w: %s", domain.ErrFilterNotFound, id)
	}
	return s.filters[i], nil
}

// SaveFilter stores filter under name.
func (s *Service) SaveFilter(ctx context.Context, name string, filter domain.TaskFilter) (domain.FilterPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxFilterNameLength {
		return domain.FilterPreset{}, domain.ErrPresetNameInvalid
	}
	sortBy, err := domain.NewTaskSortField(string(filter.SortBy))
	if err != nil {
		return domain.FilterPreset{}, err
	}
	if err := filter.Validate(); err != nil {
		return domain.FilterPreset{}, err
	}
	if filter.SortBy != "" {
		filter.SortBy = sortBy
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.FilterPreset{}, fmt.Errorf("failed to generate id: %w", err)
	}
	preset := domain.FilterPreset{
		ID:        id.String(),
		Name:      name,
		Filter:    filter,
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.filters), preset)
	if err := s.repo.SaveFilters(ctx, next); err != nil {
		return domain.FilterPreset{}, fmt.Errorf("failed to save filters: %w", err)
	}
	s.filters = next

	slog.InfoContext(ctx, "filter saved", "filter_id", preset.ID, "name", name)
	return preset, nil
}

// DeleteFilter removes a saved filter preset.
func (s *Service) DeleteFilter(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.filterIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrFilterNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.filters), i, i+1)
	if err := s.repo.SaveFilters(ctx, next); err != nil {
		return fmt.Errorf("failed to save filters: %w", err)
	}
	s.filters = next
	return nil
}

// FindTasksWithFilter applies the saved filter preset id, with the conditions
// set in overrides taking precedence.
func (s *Service) FindTasksWithFilter(ctx context.Context, id string, overrides domain.TaskFilter) ([]domain.Task, error) {
	preset, err := s.Filter(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FindTasks(ctx, preset.Filter.Merge(overrides))
}

func (s *Service) filterIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.filters, func(f domain.FilterPreset) bool { return f.ID == id })
}
