package worksession

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"

	"github.com/rezkam/pomotodo/internal/domain"
)

//go:embed presets.toml
var builtInCatalogue []byte

// MaxPresetNameLength is the maximum preset name length in runes.
const MaxPresetNameLength = 64

// Duration decodes Go duration strings such as "25m" or "1h30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

type presetEntry struct {
	ID                  string   `toml:"id"`
	Name                string   `toml:"name"`
	Total               Duration `toml:"total"`
	BreakInterval       Duration `toml:"break_interval"`
	Break               Duration `toml:"break"`
	AutoStartAfterBreak *bool    `toml:"auto_start_after_break"`
	SoundEnabled        *bool    `toml:"sound_enabled"`
}

type catalogue struct {
	Presets []presetEntry `toml:"preset"`
}

// ParseCatalogue decodes a TOML preset catalogue. Every entry needs an id, a
// valid name and positive durations; omitted flags default to true.
func ParseCatalogue(data []byte) ([]domain.Preset, error) {
	var c catalogue
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse preset catalogue: %w", err)
	}

	seen := make(map[string]bool, len(c.Presets))
	presets := make([]domain.Preset, 0, len(c.Presets))
	for _, e := range c.Presets {
		if e.ID == "" {
			return nil, fmt.Errorf("preset %q: id is required", e.Name)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("preset %q: duplicate id", e.ID)
		}
		seen[e.ID] = true

		name, err := presetName(e.Name)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.ID, err)
		}

		settings := domain.WorkSessionSettings{
			TotalDuration:       e.Total.Duration,
			BreakInterval:       e.BreakInterval.Duration,
			BreakDuration:       e.Break.Duration,
			AutoStartAfterBreak: e.AutoStartAfterBreak == nil || *e.AutoStartAfterBreak,
			SoundEnabled:        e.SoundEnabled == nil || *e.SoundEnabled,
		}
		if err := settings.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.ID, err)
		}

		presets = append(presets, domain.Preset{
			ID:       e.ID,
			Name:     name,
			Settings: settings,
			BuiltIn:  true,
		})
	}
	return presets, nil
}

// BuiltInPresets returns the presets shipped with the binary.
func BuiltInPresets() []domain.Preset {
	presets, err := ParseCatalogue(builtInCatalogue)
	if err != nil {
		panic(fmt.Sprintf("worksession: embedded presets: %v", err))
	}
	return presets
}

func presetName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" || utf8.RuneCountInString(name) > MaxPresetNameLength {
		return "", domain.ErrPresetNameInvalid
	}
	return name, nil
}
