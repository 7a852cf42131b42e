package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_AdvanceFiresTicker(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	select {
	case <-tk.C():
		t.Fatal("ticker fired before the clock moved")
	default:
	}

	c.Advance(time.Second)

	select {
	case got := <-tk.C():
		assert.Equal(t, start.Add(time.Second), got)
	default:
		t.Fatal("expected a tick after advancing one period")
	}
	assert.Equal(t, start.Add(time.Second), c.Now())
}

func TestManual_DropsTicksLikeTimeTicker(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)

	c.Advance(5 * time.Second)

	require.Len(t, tk.C(), 1)
	<-tk.C()

	c.Advance(time.Second)
	got := <-tk.C()
	assert.Equal(t, time.Unix(6, 0), got)
}

func TestManual_StoppedTickerDoesNotFire(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	tk.Stop()

	c.Advance(3 * time.Second)

	assert.Empty(t, tk.C())
}

func TestManual_SetBackwardsDoesNotFire(t *testing.T) {
	c := NewManual(time.Unix(100, 0))
	tk := c.NewTicker(time.Second)

	c.Set(time.Unix(50, 0))

	assert.Empty(t, tk.C())
	assert.Equal(t, time.Unix(50, 0), c.Now())
}
