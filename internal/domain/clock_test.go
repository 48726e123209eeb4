package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestStamped(t *testing.T) {
	fixedTime := time.Date(2024, 4, 26, 12, 30, 45, 0, time.UTC)
	mockClock := clockwork.NewFakeClockAt(fixedTime)
	SetClock(mockClock)
	defer SetClock(nil)

	t.Run("stamps processing time without touching the timestamp", func(t *testing.T) {
		ts := time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC)
		r := uniformRaster(ts, BandTemperature, 2, 2, 300)

		out := Stamped(r)

		assert.Equal(t, fixedTime, out.ProcessedAt)
		assert.Equal(t, ts, out.Timestamp)
		assert.True(t, r.ProcessedAt.IsZero())
	})
}

func TestSetClock(t *testing.T) {
	t.Run("set custom clock", func(t *testing.T) {
		fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mockClock := clockwork.NewFakeClockAt(fixedTime)

		SetClock(mockClock)
		assert.Equal(t, fixedTime, clock.Now())

		SetClock(nil) // reset
	})

	t.Run("reset to real clock", func(t *testing.T) {
		fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mockClock := clockwork.NewFakeClockAt(fixedTime)

		SetClock(mockClock)
		SetClock(nil)

		// Real clock should return current time (within a small window)
		now := clock.Now()
		assert.True(t, time.Since(now) < time.Second)
	})
}
