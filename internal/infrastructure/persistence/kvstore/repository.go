package kvstore

import (
	"context"
	"fmt"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/storage"
)

// Repository persists tasks, filters, settings, presets and the active session as
// checksummed envelopes in a key-value store, one key per record kind.
//
// Missing keys surface as storage.ErrNotFound; undecodable values as
// ErrCorruptRecord or ErrUnsupportedVersion.
type Repository struct {
	store storage.Store
}

// NewRepository creates a repository over the given store.
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) load(ctx context.Context, kind string, v any) error {
	raw, err := r.store.Get(ctx, kind)
	if err != nil {
		return err
	}
	return decode(raw, kind, v)
}

func (r *Repository) save(ctx context.Context, kind string, v any) error {
	raw, err := encode(kind, v)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, kind, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}
	return nil
}

// LoadTasks returns every persisted task.
func (r *Repository) LoadTasks(ctx context.Context) ([]domain.Task, error) {
	var recs []taskRecord
	if err := r.load(ctx, KindTasks, &recs); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, recordToTask(rec))
	}
	return tasks, nil
}

// SaveTasks replaces the persisted task list.
func (r *Repository) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	recs := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		recs = append(recs, taskToRecord(t))
	}
	return r.save(ctx, KindTasks, recs)
}

// LoadFilters returns the saved task filter presets.
func (r *Repository) LoadFilters(ctx context.Context) ([]domain.FilterPreset, error) {
	var recs []filterRecord
	if err := r.load(ctx, KindFilters, &recs); err != nil {
		return nil, err
	}
	filters := make([]domain.FilterPreset, 0, len(recs))
	for _, rec := range recs {
		filters = append(filters, recordToFilter(rec))
	}
	return filters, nil
}

// SaveFilters replaces the saved task filter presets.
func (r *Repository) SaveFilters(ctx context.Context, filters []domain.FilterPreset) error {
	recs := make([]filterRecord, 0, len(filters))
	for _, f := range filters {
		recs = append(recs, filterToRecord(f))
	}
	return r.save(ctx, KindFilters, recs)
}

// LoadSettings returns the persisted work-session settings.
func (r *Repository) LoadSettings(ctx context.Context) (domain.WorkSessionSettings, error) {
	var rec settingsRecord
	if err := r.load(ctx, KindSettings, &rec); err != nil {
		return domain.WorkSessionSettings{}, err
	}
	s := recordToSettings(rec)
	if err := s.Validate(); err != nil {
		return domain.WorkSessionSettings{}, fmt.Errorf("%w: settings: %w", ErrCorruptRecord, err)
	}
	return s, nil
}

// SaveSettings persists the work-session settings.
func (r *Repository) SaveSettings(ctx context.Context, s domain.WorkSessionSettings) error {
	return r.save(ctx, KindSettings, settingsToRecord(s))
}

// LoadPresets returns the user-defined presets. Built-in presets are never persisted.
func (r *Repository) LoadPresets(ctx context.Context) ([]domain.Preset, error) {
	var recs []presetRecord
	if err := r.load(ctx, KindPresets, &recs); err != nil {
		return nil, err
	}
	presets := make([]domain.Preset, 0, len(recs))
	for _, rec := range recs {
		presets = append(presets, domain.Preset{
			ID:       rec.ID,
			Name:     rec.Name,
			Settings: recordToSettings(rec.Settings),
		})
	}
	return presets, nil
}

// SavePresets persists the user-defined presets; built-ins in the slice are skipped.
func (r *Repository) SavePresets(ctx context.Context, presets []domain.Preset) error {
	recs := make([]presetRecord, 0, len(presets))
	for _, p := range presets {
		if p.BuiltIn {
			continue
		}
		recs = append(recs, presetRecord{
			ID:       p.ID,
			Name:     p.Name,
			Settings: settingsToRecord(p.Settings),
		})
	}
	return r.save(ctx, KindPresets, recs)
}

// LoadSession returns the active session, or nil when the saved state is idle.
func (r *Repository) LoadSession(ctx context.Context) (*domain.WorkSession, error) {
	var rec *sessionRecord
	if err := r.load(ctx, KindSession, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	s := recordToSession(*rec)
	return &s, nil
}

// SaveSession persists the active session; nil records the idle state.
func (r *Repository) SaveSession(ctx context.Context, s *domain.WorkSession) error {
	var rec *sessionRecord
	if s != nil {
		sr := sessionToRecord(*s)
		rec = &sr
	}
	return r.save(ctx, KindSession, rec)
}
