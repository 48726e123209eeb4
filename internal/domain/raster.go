package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the day-granularity ISO form used for archive keys, API
// parameters, and layer URLs.
const DateLayout = "2006-01-02"

// Band names carried by source and derived rasters.
const (
	BandTemperature      = "mean_2m_air_temperature"
	BandDewpoint         = "dewpoint_2m_temperature"
	BandRelativeHumidity = "relative_humidity"
	BandHeatIndex        = "heat_index"
)

// Grid is the geographic footprint shared by every band of a raster: a
// regular lon/lat grid anchored at the lower-left cell corner, with square
// cells of CellSize degrees. Row 0 is the southernmost row.
type Grid struct {
	OriginLon float64 `json:"origin_lon"`
	OriginLat float64 `json:"origin_lat"`
	CellSize  float64 `json:"cell_size"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Cells returns the number of samples a band on this grid holds.
func (g Grid) Cells() int { return g.Width * g.Height }

// Center returns the lon/lat of the center of cell (col, row).
func (g Grid) Center(col, row int) (lon, lat float64) {
	return g.OriginLon + (float64(col)+0.5)*g.CellSize,
		g.OriginLat + (float64(row)+0.5)*g.CellSize
}

// Band is one named sample plane. Samples are row-major with row 0 south,
// len == Grid.Cells(). NaN marks masked cells: outside the clipping boundary
// or missing upstream.
type Band struct {
	Name    string    `json:"name"`
	Samples []float64 `json:"samples"`
}

// Stats summarizes the band's unmasked samples. Valid is the number of
// non-NaN cells; min, max, and mean are taken over those cells only and are
// zero when no cell is valid.
func (b Band) Stats() (min, max, mean float64, valid int) {
	for _, v := range b.Samples {
		if math.IsNaN(v) {
			continue
		}
		if valid == 0 || v < min {
			min = v
		}
		if valid == 0 || v > max {
			max = v
		}
		mean += v
		valid++
	}
	if valid > 0 {
		mean /= float64(valid)
	}
	return min, max, mean, valid
}

// Raster is a stack of bands over one grid, acquired at one timestamp (day
// granularity, UTC). Rasters are immutable by convention: derivation helpers
// return copies, never mutate the receiver, and carry the source timestamp
// through unchanged. ProcessedAt is stamped by the pipeline when the derived
// raster is stored; source rasters leave it zero.
type Raster struct {
	Timestamp   time.Time `json:"timestamp"`
	Grid        Grid      `json:"grid"`
	Bands       []Band    `json:"bands"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Band returns the named band, or a *BandError when the raster does not
// carry it.
func (r Raster) Band(name string) (Band, error) {
	for _, b := range r.Bands {
		if b.Name == name {
			return b, nil
		}
	}
	return Band{}, &BandError{Band: name, Problem: "not present"}
}

// HasBand reports whether the raster carries the named band.
func (r Raster) HasBand(name string) bool {
	_, err := r.Band(name)
	return err == nil
}

// WithBand returns a copy of r with b appended. The receiver is left
// untouched and the timestamp is preserved. Appending a band whose sample
// count does not match the grid, or whose name is already present, is a
// contract violation and fails.
func (r Raster) WithBand(b Band) (Raster, error) {
	if len(b.Samples) != r.Grid.Cells() {
		return Raster{}, fmt.Errorf("append band %s: %w: %d samples on a %dx%d grid",
			b.Name, ErrGridMismatch, len(b.Samples), r.Grid.Width, r.Grid.Height)
	}
	if r.HasBand(b.Name) {
		return Raster{}, &BandError{Band: b.Name, Problem: "already present"}
	}
	out := r
	out.Bands = make([]Band, 0, len(r.Bands)+1)
	out.Bands = append(out.Bands, r.Bands...)
	out.Bands = append(out.Bands, b)
	return out, nil
}

// Validate checks the structural invariants of a raster as received from the
// archive service: a timestamp, a non-degenerate grid, and every band sized
// to the grid.
func (r Raster) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("raster has no timestamp")
	}
	if r.Grid.Width <= 0 || r.Grid.Height <= 0 || r.Grid.CellSize <= 0 {
		return fmt.Errorf("raster %s: degenerate grid %dx%d cell %g",
			r.Timestamp.Format(DateLayout), r.Grid.Width, r.Grid.Height, r.Grid.CellSize)
	}
	for _, b := range r.Bands {
		if len(b.Samples) != r.Grid.Cells() {
			return fmt.Errorf("raster %s band %s: %w: %d samples on a %dx%d grid",
				r.Timestamp.Format(DateLayout), b.Name, ErrGridMismatch,
				len(b.Samples), r.Grid.Width, r.Grid.Height)
		}
	}
	return nil
}

// Pair is the ephemeral association of a temperature raster and the dewpoint
// raster acquired on the same day. It is built by ResolvePair and consumed
// within a single pipeline step.
type Pair struct {
	Temperature Raster
	Dewpoint    Raster
}
