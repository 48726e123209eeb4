package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Boundary is a named clipping region assembled from the polygon geometries
// of a GeoJSON feature collection. A nil *Boundary means no clipping.
type Boundary struct {
	name     string
	polygons []orb.Polygon
}

// ParseBoundary decodes a GeoJSON feature collection and collects its
// Polygon and MultiPolygon geometries. A collection with no polygonal
// geometry is rejected.
func ParseBoundary(name string, data []byte) (*Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundary %s: %w", name, err)
	}
	var polygons []orb.Polygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		}
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("parse boundary %s: no polygon features", name)
	}
	return &Boundary{name: name, polygons: polygons}, nil
}

// Name returns the asset name the boundary was parsed from.
func (b *Boundary) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Contains reports whether the point lies inside any of the boundary's
// polygons. A nil boundary contains everything.
func (b *Boundary) Contains(lon, lat float64) bool {
	if b == nil {
		return true
	}
	pt := orb.Point{lon, lat}
	for _, poly := range b.polygons {
		if planar.PolygonContains(poly, pt) {
			return true
		}
	}
	return false
}

// Clip returns a copy of r with every cell whose center falls outside the
// boundary masked to NaN across all bands. Masked cells stay masked through
// later derivations and render transparent. A nil boundary returns r
// unchanged.
func (b *Boundary) Clip(r Raster) Raster {
	if b == nil {
		return r
	}
	inside := make([]bool, r.Grid.Cells())
	for row := 0; row < r.Grid.Height; row++ {
		for col := 0; col < r.Grid.Width; col++ {
			lon, lat := r.Grid.Center(col, row)
			inside[row*r.Grid.Width+col] = b.Contains(lon, lat)
		}
	}
	out := r
	out.Bands = make([]Band, len(r.Bands))
	for bi, band := range r.Bands {
		samples := make([]float64, len(band.Samples))
		for i, v := range band.Samples {
			if inside[i] {
				samples[i] = v
			} else {
				samples[i] = math.NaN()
			}
		}
		out.Bands[bi] = Band{Name: band.Name, Samples: samples}
	}
	return out
}
