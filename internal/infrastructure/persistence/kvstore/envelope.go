package kvstore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// CurrentVersion is the envelope version written by this build.
const CurrentVersion = 1

// Record kinds, also used as storage keys.
const (
	KindTasks    = "tasks"
	KindSettings = "settings"
	KindPresets  = "presets"
	KindSession  = "session"
	KindFilters  = "filters"
)

var (
	// ErrCorruptRecord is returned when a stored value cannot be decoded or fails its checksum.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrUnsupportedVersion is returned for envelopes written by a newer build.
	ErrUnsupportedVersion = errors.New("unsupported record version")
)

type envelope struct {
	Version int             `json:"v"`
	Kind    string          `json:"kind"`
	Sum     string          `json:"sum"`
	Data    json.RawMessage `json:"data"`
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encode marshals v and wraps it in a checksummed envelope.
func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	return json.Marshal(envelope{
		Version: CurrentVersion,
		Kind:    kind,
		Sum:     checksum(data),
		Data:    data,
	})
}

// decode validates the envelope around raw and unmarshals its payload into v.
func decode(raw []byte, kind string, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptRecord, kind, err)
	}
	if env.Version != CurrentVersion {
		return fmt.Errorf("%w: %s: v%d", ErrUnsupportedVersion, kind, env.Version)
	}
	if env.Kind != kind {
		return fmt.Errorf("%w: expected kind %q, got %q", ErrCorruptRecord, kind, env.Kind)
	}
	if env.Sum != checksum(env.Data) {
		return fmt.Errorf("%w: %s: checksum mismatch", ErrCorruptRecord, kind)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptRecord, kind, err)
	}
	return nil
}
