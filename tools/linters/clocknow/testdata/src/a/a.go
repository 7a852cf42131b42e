package a

import (
	"time"
	tm "time"
)

type fakeClock struct{}

func (fakeClock) Now() time.Time { return time.Time{} }

func bad() {
	_ = time.Now() // want `time.Now reads the wall clock; use clock.Clock instead`
}

func badDeadline(start time.Time) bool {
	return time.Since(start) > time.Minute // want `time.Since reads the wall clock; use clock.Clock instead`
}

func badTicker() {
	t := time.NewTicker(time.Second) // want `time.NewTicker reads the wall clock; use clock.Clock instead`
	t.Stop()
}

func badAlias() {
	_ = tm.Now() // want `time.Now reads the wall clock; use clock.Clock instead`
}

func goodClock(c fakeClock) {
	_ = c.Now()
}

func goodPure() {
	_ = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC).Add(25 * time.Minute)
	_ = time.Unix(0, 0)
}

func goodTimerMethod(t *time.Timer) {
	t.Reset(time.Second)
}

func nolintGeneral() {
	//nolint
	_ = time.Now()
}

func nolintSpecific() {
	_ = time.Now() //nolint:clocknow
}

func nolintList() {
	_ = time.Now() //nolint:gosec,clocknow
}

func nolintOtherLinter() {
	_ = time.Now() //nolint:otherlinter // want `time.Now reads the wall clock; use clock.Clock instead`
}
