package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for processing stamps. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Stamped returns a copy of r with ProcessedAt set to the current time. The
// pipeline applies it once, after derivation and before storage, so the
// derivation helpers themselves stay deterministic.
func Stamped(r Raster) Raster {
	r.ProcessedAt = clock.Now().UTC()
	return r
}
