package desktop

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
)

func TestHints(t *testing.T) {
	h := hints(notify.Notification{Sound: domain.SoundBell})

	require.Contains(t, h, "urgency")
	assert.Equal(t, urgencyNormal, h["urgency"].Value())
	require.Contains(t, h, "sound-name")
	assert.Equal(t, "bell", h["sound-name"].Value())
}

func TestHints_UnknownSoundOmitted(t *testing.T) {
	h := hints(notify.Notification{Sound: domain.SoundType("")})
	assert.NotContains(t, h, "sound-name")
}

func TestSink_Deliver(t *testing.T) {
	if os.Getenv("TEST_DBUS_NOTIFY") == "" {
		t.Skip("TEST_DBUS_NOTIFY not set, skipping desktop notification test")
	}

	sink, err := New("pomotodo-test", WithExpireTimeout(2*time.Second))
	require.NoError(t, err)
	defer sink.Close()

	err = sink.Deliver(context.Background(), notify.Notification{
		ID:    "test",
		Title: "pomotodo",
		Body:  "desktop sink test",
		Sound: domain.SoundChime,
	})
	require.NoError(t, err)
}
