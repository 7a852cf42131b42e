package worksession

import (
	"context"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Repository persists settings, user presets and the active session.
// Each Load returns storage.ErrNotFound when nothing was saved yet.
type Repository interface {
	LoadSettings(ctx context.Context) (domain.WorkSessionSettings, error)
	SaveSettings(ctx context.Context, s domain.WorkSessionSettings) error

	// LoadPresets returns user presets only.
	LoadPresets(ctx context.Context) ([]domain.Preset, error)
	SavePresets(ctx context.Context, presets []domain.Preset) error

	// LoadSession returns nil when the saved state is idle.
	LoadSession(ctx context.Context) (*domain.WorkSession, error)
	SaveSession(ctx context.Context, s *domain.WorkSession) error
}
