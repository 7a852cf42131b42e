// Package worksession runs the work/break cycle on top of the session state
// machine: it owns settings and presets, persists every transition and keeps
// the session's notifications in step with it.
package worksession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/session"
	"github.com/rezkam/pomotodo/internal/storage"
)

// State is the active session (nil when idle) with its derived timings.
type State struct {
	Session  *domain.WorkSession
	Snapshot session.Snapshot
}

// Option configures a Service.
type Option func(*Service)

// WithExtraPresets adds presets that behave like built-ins.
func WithExtraPresets(presets []domain.Preset) Option {
	return func(s *Service) {
		for _, p := range presets {
			p.BuiltIn = true
			if i := slices.IndexFunc(s.builtIns, func(b domain.Preset) bool { return b.ID == p.ID }); i >= 0 {
				s.builtIns[i] = p
				continue
			}
			s.builtIns = append(s.builtIns, p)
		}
	}
}

// Service coordinates the work session, its settings and presets.
type Service struct {
	repo       Repository
	dispatcher notify.Dispatcher
	clock      clock.Clock
	builtIns   []domain.Preset

	mu       sync.Mutex
	settings domain.WorkSessionSettings
	presets  []domain.Preset // user presets
	session  *domain.WorkSession
}

// NewService creates a work-session service with default settings. Call Load to
// restore persisted state.
func NewService(repo Repository, dispatcher notify.Dispatcher, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		clock:      clk,
		builtIns:   BuiltInPresets(),
		settings:   domain.DefaultWorkSessionSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores settings, user presets and the active session. Anything that is
// missing or unreadable falls back to defaults. Pending notifications of a
// restored session are scheduled again.
func (s *Service) Load(ctx context.Context) {
	settings, err := s.repo.LoadSettings(ctx)
	if err != nil {
		logLoadFailure(ctx, "settings", err)
		settings = domain.DefaultWorkSessionSettings()
	}

	presets, err := s.repo.LoadPresets(ctx)
	if err != nil {
		logLoadFailure(ctx, "presets", err)
		presets = nil
	}

	sess, err := s.repo.LoadSession(ctx)
	if err != nil {
		logLoadFailure(ctx, "session", err)
		sess = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.presets = presets
	s.session = sess
	if s.session != nil {
		s.session.NotificationIDs = s.scheduleUpcoming(ctx, s.session)
	}
	slog.InfoContext(ctx, "work session state loaded",
		"active", s.session != nil,
		"user_presets", len(presets))
}

func logLoadFailure(ctx context.Context, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		slog.DebugContext(ctx, "nothing saved, using defaults", "record", what)
		return
	}
	slog.WarnContext(ctx, "failed to load saved state, using defaults", "record", what, "error", err)
}

// Settings returns the current settings.
func (s *Service) Settings(ctx context.Context) domain.WorkSessionSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings merges patch into the current settings. The deadline of an
// active session is not moved; its upcoming notifications are rescheduled.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.WorkSessionSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceSettingsLocked(ctx, patch.Apply(s.settings))
}

func (s *Service) replaceSettingsLocked(ctx context.Context, next domain.WorkSessionSettings) (domain.WorkSessionSettings, error) {
	if err := next.Validate(); err != nil {
		return s.settings, err
	}
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		return s.settings, fmt.Errorf("failed to save settings: %w", err)
	}
	s.settings = next

	if s.session != nil {
		cur := s.session.Clone()
		if err := s.commitLocked(ctx, &cur, nil, true); err != nil {
			slog.WarnContext(ctx, "failed to reschedule session notifications", "error", err)
		} else {
			s.session = &cur
		}
	}
	return s.settings, nil
}

// Presets returns the built-in presets followed by user presets.
func (s *Service) Presets(ctx context.Context) []domain.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Preset, 0, len(s.builtIns)+len(s.presets))
	all = append(all, s.builtIns...)
	return append(all, s.presets...)
}

// SavePreset stores a named user preset. Nil settings snapshot the current settings.
func (s *Service) SavePreset(ctx context.Context, name string, settings *domain.WorkSessionSettings) (domain.Preset, error) {
	name, err := presetName(name)
	if err != nil {
		return domain.Preset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.settings
	if settings != nil {
		values = *settings
	}
	if err := values.Validate(); err != nil {
		return domain.Preset{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Preset{}, fmt.Errorf("failed to generate id: %w", err)
	}
	preset := domain.Preset{ID: id.String(), Name: name, Settings: values}

	next := append(slices.Clone(s.presets), preset)
	if err := s.repo.SavePresets(ctx, next); err != nil {
		return domain.Preset{}, fmt.Errorf("failed to save presets: %w", err)
	}
	s.presets = next

	slog.InfoContext(ctx, "preset saved", "preset_id", preset.ID, "name", name)
	return preset, nil
}

// DeletePreset removes a user preset. Built-in presets cannot be deleted.
func (s *Service) DeletePreset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.builtInLocked(id) != nil {
		return domain.ErrBuiltInPreset
	}
	i := slices.IndexFunc(s.presets, func(p domain.Preset) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.presets), i, i+1)
	if err := s.repo.SavePresets(ctx, next); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	s.presets = next
	return nil
}

// ApplyPreset replaces the settings with the preset's values.
func (s *Service) ApplyPreset(ctx context.Context, id string) (domain.WorkSessionSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset := s.builtInLocked(id)
	if preset == nil {
		if i := slices.IndexFunc(s.presets, func(p domain.Preset) bool { return p.ID == id }); i >= 0 {
			preset = &s.presets[i]
		}
	}
	if preset == nil {
		return s.settings, fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}

	slog.InfoContext(ctx, "applying preset", "preset_id", id)
	return s.replaceSettingsLocked(ctx, preset.Settings)
}

func (s *Service) builtInLocked(id string) *domain.Preset {
	for i := range s.builtIns {
		if s.builtIns[i].ID == id {
			return &s.builtIns[i]
		}
	}
	return nil
}

// Status advances the session to the current instant and returns the result,
// so that a session whose deadline passed between polling ticks reports as
// ended. A failure to persist the advance is logged and the last committed
// state is observed instead.
func (s *Service) Status(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if _, err := s.advanceLocked(ctx, now); err != nil {
		slog.WarnContext(ctx, "failed to advance session before reporting status", "error", err)
	}
	return s.stateLocked(now)
}

// Start begins a session with the current settings. Starting while a session is
// active returns the active session unchanged.
func (s *Service) Start(ctx context.Context) (State, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return State{}, fmt.Errorf("failed to generate id: %w", err)
	}
	return s.transition(ctx, func(cur *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event) {
		return session.Start(cur, id.String(), settings, now)
	})
}

// Pause freezes the active session.
func (s *Service) Pause(ctx context.Context) (State, error) {
	return s.transition(ctx, func(cur *domain.WorkSession, _ domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event) {
		return session.Pause(cur, now)
	})
}

// Resume unfreezes the active session.
func (s *Service) Resume(ctx context.Context) (State, error) {
	return s.transition(ctx, func(cur *domain.WorkSession, _ domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event) {
		return session.Resume(cur, now)
	})
}

// StartBreak begins a break before the interval elapsed.
func (s *Service) StartBreak(ctx context.Context) (State, error) {
	return s.transition(ctx, session.StartBreak)
}

// EndBreak returns to work before the break elapsed.
func (s *Service) EndBreak(ctx context.Context) (State, error) {
	return s.transition(ctx, func(cur *domain.WorkSession, _ domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event) {
		return session.EndBreak(cur, now)
	})
}

// End stops the active session and cancels its pending notifications.
func (s *Service) End(ctx context.Context) (State, error) {
	return s.transition(ctx, func(cur *domain.WorkSession, _ domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event) {
		return session.End(cur, now)
	})
}

type transitionFunc func(cur *domain.WorkSession, settings domain.WorkSessionSettings, now time.Time) (*domain.WorkSession, []session.Event)

// transition applies a user-initiated change. Pending notifications that no
// longer match the new state are cancelled.
func (s *Service) transition(ctx context.Context, fn transitionFunc) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	next, events := fn(s.session, s.settings, now)
	if len(events) == 0 {
		return s.stateLocked(now), nil
	}
	if err := s.commitLocked(ctx, next, events, true); err != nil {
		return s.stateLocked(now), err
	}
	logEvents(ctx, s.session, next, events)
	s.session = next
	return s.stateLocked(now), nil
}

// TickSession advances the session to now. It returns the boundaries crossed.
// Notifications that fall due with the crossing are left for delivery.
func (s *Service) TickSession(ctx context.Context, now time.Time) ([]session.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(ctx, now)
}

func (s *Service) advanceLocked(ctx context.Context, now time.Time) ([]session.Event, error) {
	next, events := session.Tick(s.session, s.settings, now)
	if len(events) == 0 {
		return nil, nil
	}
	if err := s.commitLocked(ctx, next, events, false); err != nil {
		return nil, err
	}
	logEvents(ctx, s.session, next, events)
	s.session = next
	return events, nil
}

// commitLocked persists next and reconciles its notifications. With cancelStale
// unset, notifications of the previous state are left pending so that the ones
// due at this boundary still get delivered.
func (s *Service) commitLocked(ctx context.Context, next *domain.WorkSession, events []session.Event, cancelStale bool) error {
	prev := s.session
	var prevIDs []string
	if prev != nil {
		prevIDs = slices.Clone(prev.NotificationIDs)
	}

	var upcoming []string
	if next != nil {
		upcoming = s.plannedIDs(next)
		next.NotificationIDs = upcoming
	}

	if err := s.repo.SaveSession(ctx, next); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if cancelStale || next == nil {
		for _, id := range prevIDs {
			if !slices.Contains(upcoming, id) {
				s.cancel(ctx, id)
			}
		}
	}
	if next != nil {
		s.scheduleUpcoming(ctx, next)
	}

	for _, e := range events {
		if e.Type == session.EventSessionCompleted && prev != nil {
			s.schedule(ctx, completeNotification(prev.ID, e.At))
		}
	}
	return nil
}

func (s *Service) stateLocked(now time.Time) State {
	st := State{Snapshot: session.Observe(s.session, s.settings, now)}
	if s.session != nil {
		c := s.session.Clone()
		st.Session = &c
	}
	return st
}

func logEvents(ctx context.Context, prev, next *domain.WorkSession, events []session.Event) {
	id := ""
	switch {
	case next != nil:
		id = next.ID
	case prev != nil:
		id = prev.ID
	}
	for _, e := range events {
		slog.InfoContext(ctx, "work session transition",
			"session_id", id,
			"event", string(e.Type),
			"at", e.At)
	}
}
