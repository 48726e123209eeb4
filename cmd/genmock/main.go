// Command genmock generates a synthetic ERA5-style daily raster archive and
// a boundary asset for the test suites and the local mock archive server. It
// runs the actual derivation chain over the generated data and prints the
// resulting statistics, so test assertions can be copied from its output.
//
// The generated samples use only exactly representable fractions, so
// regenerating the fixtures is byte-stable across platforms.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -archive-out data/mock/era5_daily_000714_combined.json \
//	  -boundary-out data/mock/northern_nigeria.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// dryness is the daily dewpoint depression cycle in kelvin: from saturated
// monsoon air to a harmattan-dry day.
var dryness = []float64{0, 3, 6, 9, 12, 15, 18}

type rasterFixture struct {
	Timestamp string      `json:"timestamp"`
	Band      string      `json:"band"`
	Grid      domain.Grid `json:"grid"`
	Samples   []float64   `json:"samples"`
}

type archiveFixture struct {
	Rasters []rasterFixture `json:"rasters"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	archiveOut := flag.String("archive-out", "", "output path for the archive wire-format fixture")
	boundaryOut := flag.String("boundary-out", "", "output path for the boundary GeoJSON asset")
	startDate := flag.String("start", "2000-07-14", "first day to generate (YYYY-MM-DD)")
	days := flag.Int("days", 7, "number of consecutive days")
	flag.Parse()

	if *archiveOut == "" || *boundaryOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -archive-out, -boundary-out")
	}

	start, err := time.ParseInLocation(domain.DateLayout, *startDate, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	grid := domain.Grid{OriginLon: 7.0, OriginLat: 9.0, CellSize: 0.25, Width: 8, Height: 6}

	fixture := archiveFixture{}
	var temps []domain.Raster
	var dews []domain.Raster
	for d := 0; d < *days; d++ {
		day := start.AddDate(0, 0, d)
		temp := buildRaster(day, domain.BandTemperature, grid, func(lon, lat float64) float64 {
			return temperatureAt(grid, d, lon, lat)
		})
		dew := buildRaster(day, domain.BandDewpoint, grid, func(lon, lat float64) float64 {
			return temperatureAt(grid, d, lon, lat) - spreadAt(grid, d, lon)
		})
		temps = append(temps, temp)
		dews = append(dews, dew)
		fixture.Rasters = append(fixture.Rasters, toFixture(temp), toFixture(dew))
	}

	if err := writeJSON(*archiveOut, fixture); err != nil {
		return fmt.Errorf("writing archive fixture: %w", err)
	}
	log.Printf("wrote archive fixture: %s (%d rasters)", *archiveOut, len(fixture.Rasters))

	boundary, boundaryJSON, err := buildBoundary(grid)
	if err != nil {
		return err
	}
	if err := writeJSON(*boundaryOut, boundaryJSON); err != nil {
		return fmt.Errorf("writing boundary asset: %w", err)
	}
	log.Printf("wrote boundary asset: %s", *boundaryOut)

	printStats(temps, dews, boundary)
	return nil
}

// temperatureAt ramps 2m air temperature in kelvin: hotter toward the
// southern grid edge and slightly toward the east, warming a quarter kelvin
// per day. All terms are multiples of 1/16 K.
func temperatureAt(grid domain.Grid, d int, lon, lat float64) float64 {
	latNorth := grid.OriginLat + float64(grid.Height)*grid.CellSize
	return 300.0 + 2.0*(latNorth-lat) + 0.5*(lon-grid.OriginLon) + 0.25*float64(d)
}

// spreadAt is the dewpoint depression: the daily dryness cycle plus a small
// west-to-east drying gradient.
func spreadAt(grid domain.Grid, d int, lon float64) float64 {
	return dryness[d%len(dryness)] + 0.5*(lon-grid.OriginLon)
}

func buildRaster(day time.Time, band string, grid domain.Grid, sample func(lon, lat float64) float64) domain.Raster {
	samples := make([]float64, grid.Cells())
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			lon, lat := grid.Center(col, row)
			samples[row*grid.Width+col] = sample(lon, lat)
		}
	}
	return domain.Raster{
		Timestamp: day,
		Grid:      grid,
		Bands:     []domain.Band{{Name: band, Samples: samples}},
	}
}

func toFixture(r domain.Raster) rasterFixture {
	return rasterFixture{
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		Band:      r.Bands[0].Name,
		Grid:      r.Grid,
		Samples:   r.Bands[0].Samples,
	}
}

// buildBoundary covers the grid except its two easternmost columns, so
// clipping is visible in fixture-driven tests.
func buildBoundary(grid domain.Grid) (*domain.Boundary, *geojson.FeatureCollection, error) {
	lonWest := grid.OriginLon
	lonEast := grid.OriginLon + float64(grid.Width-2)*grid.CellSize
	latSouth := grid.OriginLat
	latNorth := grid.OriginLat + float64(grid.Height)*grid.CellSize

	poly := orb.Polygon{{
		{lonWest, latSouth},
		{lonEast, latSouth},
		{lonEast, latNorth},
		{lonWest, latNorth},
		{lonWest, latSouth},
	}}
	feature := geojson.NewFeature(poly)
	feature.Properties["name"] = "Northern Nigeria"

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal boundary: %w", err)
	}
	boundary, err := domain.ParseBoundary("northern-nigeria", data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse generated boundary: %w", err)
	}
	return boundary, fc, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(temps, dews []domain.Raster, boundary *domain.Boundary) {
	archive := domain.NewArchive(domain.BandDewpoint, dews)

	fmt.Println("\n=== Stats for updating test assertions ===")
	minRH := math.Inf(1)
	maxRH := math.Inf(-1)
	for _, temp := range temps {
		full, err := deriveDay(temp, archive, nil)
		if err != nil {
			log.Printf("derive %s: %v", temp.Timestamp.Format(domain.DateLayout), err)
			continue
		}
		clipped, err := deriveDay(temp, archive, boundary)
		if err != nil {
			log.Printf("derive clipped %s: %v", temp.Timestamp.Format(domain.DateLayout), err)
			continue
		}

		rh, _ := full.Band(domain.BandRelativeHumidity)
		hi, _ := full.Band(domain.BandHeatIndex)
		rhMin, rhMax, _, valid := rh.Stats()
		hiMin, hiMax, _, _ := hi.Stats()
		_, _, _, clippedValid := mustBand(clipped, domain.BandRelativeHumidity).Stats()

		fmt.Printf("%s: rh=[%g, %g] hi=[%g, %g] valid=%d clipped_valid=%d\n",
			temp.Timestamp.Format(domain.DateLayout), rhMin, rhMax, hiMin, hiMax, valid, clippedValid)
		minRH = math.Min(minRH, rhMin)
		maxRH = math.Max(maxRH, rhMax)
	}
	fmt.Printf("RH range across fixture: min=%g max=%g\n", minRH, maxRH)
}

func deriveDay(temp domain.Raster, dews domain.Archive, boundary *domain.Boundary) (domain.Raster, error) {
	pair, err := domain.ResolvePair(temp, dews)
	if err != nil {
		return domain.Raster{}, err
	}
	withRH, err := domain.WithRelativeHumidity(boundary.Clip(pair.Temperature), boundary.Clip(pair.Dewpoint))
	if err != nil {
		return domain.Raster{}, err
	}
	return domain.WithHeatIndex(withRH)
}

func mustBand(r domain.Raster, name string) domain.Band {
	b, err := r.Band(name)
	if err != nil {
		log.Fatal(err)
	}
	return b
}
