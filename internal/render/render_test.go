package render

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = color.NRGBA{A: 0xFF}
	white = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

func TestPaletteAt(t *testing.T) {
	ramp := Palette{Min: 0, Max: 1, Colors: []color.NRGBA{black, white}}

	t.Run("end stops", func(t *testing.T) {
		assert.Equal(t, black, ramp.At(0))
		assert.Equal(t, white, ramp.At(1))
	})

	t.Run("clamps outside the range", func(t *testing.T) {
		assert.Equal(t, black, ramp.At(-5))
		assert.Equal(t, white, ramp.At(5))
	})

	t.Run("interpolates between stops", func(t *testing.T) {
		mid := ramp.At(0.5)
		assert.Equal(t, uint8(0x80), mid.R)
		assert.Equal(t, uint8(0x80), mid.G)
		assert.Equal(t, uint8(0x80), mid.B)
		assert.Equal(t, uint8(0xFF), mid.A)
	})

	t.Run("NaN is transparent", func(t *testing.T) {
		assert.Equal(t, color.NRGBA{}, ramp.At(math.NaN()))
	})

	t.Run("single stop", func(t *testing.T) {
		p := Palette{Min: 0, Max: 1, Colors: []color.NRGBA{white}}
		assert.Equal(t, white, p.At(0.3))
	})

	t.Run("no stops", func(t *testing.T) {
		p := Palette{Min: 0, Max: 1}
		assert.Equal(t, color.NRGBA{}, p.At(0.3))
	})

	t.Run("lands exactly on an interior stop", func(t *testing.T) {
		heat := DefaultPalettes()[domain.BandHeatIndex]
		// 75 of 150 with 7 stops sits exactly on the middle stop (yellow).
		assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xFF, A: 0xFF}, heat.At(75))
	})
}

func TestDefaultPalettes(t *testing.T) {
	palettes := DefaultPalettes()

	heat, ok := palettes[domain.BandHeatIndex]
	require.True(t, ok)
	assert.Equal(t, 0.0, heat.Min)
	assert.Equal(t, 150.0, heat.Max)
	require.Len(t, heat.Colors, 7)
	assert.Equal(t, color.NRGBA{B: 0xFF, A: 0xFF}, heat.At(-10))
	assert.Equal(t, color.NRGBA{R: 0x80, B: 0x80, A: 0xFF}, heat.At(200))

	assert.Contains(t, palettes, domain.BandRelativeHumidity)
	assert.Contains(t, palettes, domain.BandTemperature)
}

func TestLoadPalettes(t *testing.T) {
	t.Run("empty path keeps defaults", func(t *testing.T) {
		palettes, err := LoadPalettes("")

		require.NoError(t, err)
		assert.Equal(t, DefaultPalettes(), palettes)
	})

	t.Run("override replaces one band and keeps the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palettes.yaml")
		content := "heat_index:\n  min: 20\n  max: 140\n  colors: [\"#0000ff\", \"#ff0000\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		palettes, err := LoadPalettes(path)

		require.NoError(t, err)
		heat := palettes[domain.BandHeatIndex]
		assert.Equal(t, 20.0, heat.Min)
		assert.Equal(t, 140.0, heat.Max)
		require.Len(t, heat.Colors, 2)
		assert.Equal(t, color.NRGBA{B: 0xFF, A: 0xFF}, heat.Colors[0])
		assert.Equal(t, DefaultPalettes()[domain.BandTemperature], palettes[domain.BandTemperature])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPalettes(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("bad hex color", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palettes.yaml")
		content := "heat_index:\n  min: 0\n  max: 100\n  colors: [\"red\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadPalettes(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad color")
	})

	t.Run("inverted range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palettes.yaml")
		content := "heat_index:\n  min: 100\n  max: 0\n  colors: [\"#000000\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadPalettes(path)

		require.Error(t, err)
	})

	t.Run("malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palettes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\t- nope"), 0o600))

		_, err := LoadPalettes(path)

		require.Error(t, err)
	})
}

func TestLayer(t *testing.T) {
	ramp := Palette{Min: 0, Max: 1, Colors: []color.NRGBA{black, white}}
	ts := time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("flips rows so north is at the top", func(t *testing.T) {
		r := domain.Raster{
			Timestamp: ts,
			Grid:      domain.Grid{OriginLon: 7, OriginLat: 9, CellSize: 0.25, Width: 2, Height: 2},
			// Row 0 (south) dark, row 1 (north) bright.
			Bands: []domain.Band{{Name: domain.BandHeatIndex, Samples: []float64{0, 0, 1, 1}}},
		}

		img, err := Layer(r, domain.BandHeatIndex, ramp)

		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())
		assert.Equal(t, 2, img.Bounds().Dy())
		assert.Equal(t, white, img.NRGBAAt(0, 0))
		assert.Equal(t, white, img.NRGBAAt(1, 0))
		assert.Equal(t, black, img.NRGBAAt(0, 1))
		assert.Equal(t, black, img.NRGBAAt(1, 1))
	})

	t.Run("masked cells are transparent", func(t *testing.T) {
		r := domain.Raster{
			Timestamp: ts,
			Grid:      domain.Grid{OriginLon: 7, OriginLat: 9, CellSize: 0.25, Width: 2, Height: 1},
			Bands:     []domain.Band{{Name: domain.BandHeatIndex, Samples: []float64{1, math.NaN()}}},
		}

		img, err := Layer(r, domain.BandHeatIndex, ramp)

		require.NoError(t, err)
		assert.Equal(t, white, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{}, img.NRGBAAt(1, 0))
	})

	t.Run("missing band", func(t *testing.T) {
		r := domain.Raster{
			Timestamp: ts,
			Grid:      domain.Grid{OriginLon: 7, OriginLat: 9, CellSize: 0.25, Width: 1, Height: 1},
		}

		_, err := Layer(r, domain.BandHeatIndex, ramp)

		var bandErr *domain.BandError
		require.ErrorAs(t, err, &bandErr)
	})
}

func TestEmptyLayer(t *testing.T) {
	img := EmptyLayer(3, 2)

	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, color.NRGBA{}, img.NRGBAAt(x, y))
		}
	}
}
