package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRaster(ts time.Time, value float64) domain.Raster {
	return domain.Raster{
		Timestamp: ts,
		Grid:      domain.Grid{OriginLon: 7, OriginLat: 9, CellSize: 0.25, Width: 2, Height: 2},
		Bands:     []domain.Band{{Name: domain.BandHeatIndex, Samples: []float64{value, value, value, value}}},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2001, 5, 9, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2001, 5, 10, 0, 0, 0, 0, time.UTC)

	t.Run("store and get", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Store(ctx, testRaster(day1, 95)))

		got, err := s.Get(day1)

		require.NoError(t, err)
		assert.Equal(t, day1, got.Timestamp)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("get keys by UTC day regardless of hour", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Store(ctx, testRaster(day1, 95)))

		got, err := s.Get(day1.Add(13 * time.Hour))

		require.NoError(t, err)
		assert.Equal(t, day1, got.Timestamp)
	})

	t.Run("missing day", func(t *testing.T) {
		s := NewMemoryStore()

		_, err := s.Get(day1)

		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "2001-05-09")
	})

	t.Run("storing the same day replaces", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Store(ctx, testRaster(day1, 95)))
		require.NoError(t, s.Store(ctx, testRaster(day1, 105)))

		got, err := s.Get(day1)

		require.NoError(t, err)
		assert.Equal(t, 105.0, got.Bands[0].Samples[0])
		assert.Equal(t, 1, s.Len())
	})

	t.Run("zero timestamp rejected", func(t *testing.T) {
		s := NewMemoryStore()

		err := s.Store(ctx, domain.Raster{})

		require.Error(t, err)
	})

	t.Run("dates are sorted", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Store(ctx, testRaster(day2, 90)))
		require.NoError(t, s.Store(ctx, testRaster(day1, 95)))

		assert.Equal(t, []string{"2001-05-09", "2001-05-10"}, s.Dates())
	})

	t.Run("first returns the earliest raster", func(t *testing.T) {
		s := NewMemoryStore()

		_, ok := s.First()
		assert.False(t, ok)

		require.NoError(t, s.Store(ctx, testRaster(day2, 90)))
		require.NoError(t, s.Store(ctx, testRaster(day1, 95)))

		first, ok := s.First()
		require.True(t, ok)
		assert.Equal(t, day1, first.Timestamp)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := NewMemoryStore()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ts := day1.AddDate(0, 0, i)
				assert.NoError(t, s.Store(ctx, testRaster(ts, float64(i))))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 20, s.Len())
	})
}
