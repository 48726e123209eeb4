package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// Palette maps sample values onto a color ramp. Stops are spread evenly
// between Min and Max; values outside the range clamp to the end stops, and
// NaN maps to fully transparent.
type Palette struct {
	Min    float64
	Max    float64
	Colors []color.NRGBA
}

// At returns the ramp color for v.
func (p Palette) At(v float64) color.NRGBA {
	if math.IsNaN(v) || len(p.Colors) == 0 {
		return color.NRGBA{}
	}
	if len(p.Colors) == 1 {
		return p.Colors[0]
	}
	t := (v - p.Min) / (p.Max - p.Min)
	if t <= 0 {
		return p.Colors[0]
	}
	if t >= 1 {
		return p.Colors[len(p.Colors)-1]
	}
	pos := t * float64(len(p.Colors)-1)
	i := int(pos)
	if i >= len(p.Colors)-1 {
		return p.Colors[len(p.Colors)-1]
	}
	frac := pos - float64(i)
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + frac*(float64(b)-float64(a))))
	}
	a, b := p.Colors[i], p.Colors[i+1]
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

// DefaultPalettes returns the built-in ramp per renderable band. The heat
// index ramp spans 0-150°F through blue, cyan, green, yellow, orange, red,
// purple, matching the published dashboard legend.
func DefaultPalettes() map[string]Palette {
	return map[string]Palette{
		domain.BandHeatIndex: {
			Min: 0, Max: 150,
			Colors: []color.NRGBA{
				{B: 0xFF, A: 0xFF},
				{G: 0xFF, B: 0xFF, A: 0xFF},
				{G: 0x80, A: 0xFF},
				{R: 0xFF, G: 0xFF, A: 0xFF},
				{R: 0xFF, G: 0xA5, A: 0xFF},
				{R: 0xFF, A: 0xFF},
				{R: 0x80, B: 0x80, A: 0xFF},
			},
		},
		domain.BandRelativeHumidity: {
			Min: 0, Max: 100,
			Colors: []color.NRGBA{
				{R: 0xF7, G: 0xFB, B: 0xFF, A: 0xFF},
				{R: 0x9E, G: 0xCA, B: 0xE1, A: 0xFF},
				{R: 0x42, G: 0x92, B: 0xC6, A: 0xFF},
				{R: 0x08, G: 0x30, B: 0x6B, A: 0xFF},
			},
		},
		domain.BandTemperature: {
			Min: 250, Max: 320,
			Colors: []color.NRGBA{
				{R: 0x31, G: 0x36, B: 0x95, A: 0xFF},
				{R: 0x74, G: 0xAD, B: 0xD1, A: 0xFF},
				{R: 0xFF, G: 0xFF, B: 0xBF, A: 0xFF},
				{R: 0xF4, G: 0x6D, B: 0x43, A: 0xFF},
				{R: 0xA5, G: 0x00, B: 0x26, A: 0xFF},
			},
		},
	}
}

// paletteSpec is the YAML form of one palette override.
type paletteSpec struct {
	Min    float64  `yaml:"min"`
	Max    float64  `yaml:"max"`
	Colors []string `yaml:"colors"`
}

// LoadPalettes returns the built-in palettes with any overrides from the
// named YAML file applied on top. An empty path means no overrides. The file
// maps band name to min/max and a list of #RRGGBB stops:
//
//	heat_index:
//	  min: 0
//	  max: 140
//	  colors: ["#0000ff", "#ffff00", "#ff0000"]
func LoadPalettes(path string) (map[string]Palette, error) {
	palettes := DefaultPalettes()
	if path == "" {
		return palettes, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette file: %w", err)
	}
	var specs map[string]paletteSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse palette file %s: %w", path, err)
	}
	for band, spec := range specs {
		p, err := spec.palette()
		if err != nil {
			return nil, fmt.Errorf("palette %s: %w", band, err)
		}
		palettes[band] = p
	}
	return palettes, nil
}

func (s paletteSpec) palette() (Palette, error) {
	if s.Max <= s.Min {
		return Palette{}, fmt.Errorf("max %g not above min %g", s.Max, s.Min)
	}
	if len(s.Colors) == 0 {
		return Palette{}, fmt.Errorf("no color stops")
	}
	colors := make([]color.NRGBA, len(s.Colors))
	for i, hex := range s.Colors {
		c, err := parseHexColor(hex)
		if err != nil {
			return Palette{}, err
		}
		colors[i] = c
	}
	return Palette{Min: s.Min, Max: s.Max, Colors: colors}, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("bad color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
