package domain

import (
	"context"
	"time"
)

// RasterSource supplies source rasters and clipping assets from the remote
// geoanalytics archive.
type RasterSource interface {
	// FetchRasters returns every raster of one band with
	// start <= timestamp < end, in no guaranteed order.
	FetchRasters(ctx context.Context, band string, start, end time.Time) ([]Raster, error)

	// FetchBoundary fetches and parses the named polygon asset.
	FetchBoundary(ctx context.Context, asset string) (*Boundary, error)
}
