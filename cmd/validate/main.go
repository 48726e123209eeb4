// Command validate performs end-to-end integrity checks across the generated
// mock fixtures: the archive wire-format JSON, the boundary asset, and the
// derivation chain that turns them into served rasters. It verifies fixture
// shape, temperature/dewpoint pairing, derived band values, and boundary
// alignment.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -archive-json data/mock/era5_daily_000714_combined.json \
//	  -boundary-json data/mock/northern_nigeria.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type archiveFile struct {
	Rasters []archiveEntry `json:"rasters"`
}

type archiveEntry struct {
	Timestamp string      `json:"timestamp"`
	Band      string      `json:"band"`
	Grid      domain.Grid `json:"grid"`
	Samples   []*float64  `json:"samples"`
}

func main() {
	archiveJSON := flag.String("archive-json", "", "path to the archive wire-format fixture")
	boundaryJSON := flag.String("boundary-json", "", "path to the boundary GeoJSON asset")
	flag.Parse()

	if *archiveJSON == "" || *boundaryJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*archiveJSON, *boundaryJSON); code != 0 {
		os.Exit(code)
	}
}

func run(archivePath, boundaryPath string) int {
	fmt.Println("=== Heat Index Fixture Validation ===")
	fmt.Println()

	data, err := os.ReadFile(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read archive fixture: %v\n", err)
		return 1
	}
	var file archiveFile
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse archive fixture: %v\n", err)
		return 1
	}

	boundaryData, err := os.ReadFile(boundaryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read boundary asset: %v\n", err)
		return 1
	}
	boundary, err := domain.ParseBoundary("northern-nigeria", boundaryData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse boundary asset: %v\n", err)
		return 1
	}

	temps, dews, convErrs := splitRasters(file)

	phases := []*phase{
		validateFixtureShape(file, convErrs),
		validatePairing(temps, dews),
		validateDerivation(temps, dews),
		validateBoundaryAlignment(boundary, temps, dews),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	cells := 0
	if len(temps) > 0 {
		cells = temps[0].Grid.Cells()
	}
	fmt.Println()
	fmt.Printf("Rasters: %d temperature, %d dewpoint, %d cells each\n", len(temps), len(dews), cells)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// splitRasters converts fixture entries to domain rasters, partitioned by
// band. Conversion problems are reported through phase 1 rather than
// aborting, so one bad entry does not hide the rest of the report.
func splitRasters(file archiveFile) (temps, dews []domain.Raster, convErrs []string) {
	for i, e := range file.Rasters {
		r, err := toRaster(e)
		if err != nil {
			convErrs = append(convErrs, fmt.Sprintf("entry %d (%s): %v", i, e.Band, err))
			continue
		}
		switch e.Band {
		case domain.BandTemperature:
			temps = append(temps, r)
		case domain.BandDewpoint:
			dews = append(dews, r)
		default:
			convErrs = append(convErrs, fmt.Sprintf("entry %d: unexpected band %q", i, e.Band))
		}
	}
	return temps, dews, convErrs
}

func toRaster(e archiveEntry) (domain.Raster, error) {
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return domain.Raster{}, fmt.Errorf("bad timestamp: %w", err)
	}
	samples := make([]float64, len(e.Samples))
	for i, v := range e.Samples {
		if v == nil {
			samples[i] = math.NaN()
			continue
		}
		samples[i] = *v
	}
	r := domain.Raster{
		Timestamp: ts.UTC(),
		Grid:      e.Grid,
		Bands:     []domain.Band{{Name: e.Band, Samples: samples}},
	}
	if err := r.Validate(); err != nil {
		return domain.Raster{}, err
	}
	return r, nil
}

// Phase 1: fixture shape. The archive must hold matching temperature and
// dewpoint runs on one shared grid, one raster per band per day, with every
// sample present and finite. genmock never emits masked cells.
func validateFixtureShape(file archiveFile, convErrs []string) *phase {
	p := &phase{name: "Phase 1: Fixture Shape (wire format)"}
	p.errors = append(p.errors, convErrs...)

	if len(file.Rasters) == 0 {
		p.errorf("fixture holds no rasters")
		return p
	}

	grid := file.Rasters[0].Grid
	for i, e := range file.Rasters {
		if e.Grid != grid {
			p.errorf("entry %d: grid %+v differs from first grid %+v", i, e.Grid, grid)
		}
		if len(e.Samples) != e.Grid.Cells() {
			p.errorf("entry %d: %d samples for a %d-cell grid", i, len(e.Samples), e.Grid.Cells())
		}
		for j, v := range e.Samples {
			if v == nil {
				p.errorf("entry %d: sample %d is null", i, j)
			} else if math.IsNaN(*v) || math.IsInf(*v, 0) {
				p.errorf("entry %d: sample %d is not finite", i, j)
			}
		}
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			continue // already reported via conversion
		}
		if !ts.Equal(ts.UTC().Truncate(24 * time.Hour)) {
			p.errorf("entry %d: timestamp %s is not UTC midnight", i, e.Timestamp)
		}
	}
	return p
}

// Phase 2: pairing. Every temperature day needs a dewpoint counterpart, and
// dewpoint can never exceed temperature.
func validatePairing(temps, dews []domain.Raster) *phase {
	p := &phase{name: "Phase 2: Pairing (temperature vs dewpoint)"}

	if len(temps) != len(dews) {
		p.errorf("%d temperature rasters but %d dewpoint rasters", len(temps), len(dews))
	}

	archive := domain.NewArchive(domain.BandDewpoint, dews)
	for _, temp := range temps {
		date := temp.Timestamp.Format(domain.DateLayout)
		pair, err := domain.ResolvePair(temp, archive)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}

		tBand, err := pair.Temperature.Band(domain.BandTemperature)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		dBand, err := pair.Dewpoint.Band(domain.BandDewpoint)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		for i := range tBand.Samples {
			if dBand.Samples[i] > tBand.Samples[i] {
				p.errorf("%s cell %d: dewpoint %g exceeds temperature %g",
					date, i, dBand.Samples[i], tBand.Samples[i])
				break
			}
		}
	}
	return p
}

// Phase 3: derivation. Re-runs the actual domain chain and cross-checks the
// relative humidity band against a direct evaluation of its formula.
func validateDerivation(temps, dews []domain.Raster) *phase {
	p := &phase{name: "Phase 3: Derivation (domain chain)"}

	archive := domain.NewArchive(domain.BandDewpoint, dews)
	for _, temp := range temps {
		date := temp.Timestamp.Format(domain.DateLayout)

		pair, err := domain.ResolvePair(temp, archive)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		withRH, err := domain.WithRelativeHumidity(pair.Temperature, pair.Dewpoint)
		if err != nil {
			p.errorf("%s: relative humidity: %v", date, err)
			continue
		}
		full, err := domain.WithHeatIndex(withRH)
		if err != nil {
			p.errorf("%s: heat index: %v", date, err)
			continue
		}

		if !full.Timestamp.Equal(temp.Timestamp) {
			p.errorf("%s: derivation changed the timestamp to %s", date, full.Timestamp)
		}
		if !full.ProcessedAt.IsZero() {
			p.errorf("%s: derivation stamped processed_at; that is the pipeline's job", date)
		}

		tBand, _ := full.Band(domain.BandTemperature)
		dBand, _ := pair.Dewpoint.Band(domain.BandDewpoint)
		rh, err := full.Band(domain.BandRelativeHumidity)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		hi, err := full.Band(domain.BandHeatIndex)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}

		for i := range rh.Samples {
			want := 100 - 5*(tBand.Samples[i]-dBand.Samples[i])
			if math.Abs(rh.Samples[i]-want) > 1e-9 {
				p.errorf("%s cell %d: rh %g, direct evaluation %g", date, i, rh.Samples[i], want)
				break
			}
		}
		for i, v := range rh.Samples {
			if v < 0 || v > 100 {
				p.errorf("%s cell %d: rh %g outside [0, 100] for fixture data", date, i, v)
				break
			}
		}
		for i, v := range hi.Samples {
			if math.IsNaN(v) != math.IsNaN(rh.Samples[i]) {
				p.errorf("%s cell %d: heat index mask disagrees with rh mask", date, i)
				break
			}
			if !math.IsNaN(v) && math.IsInf(v, 0) {
				p.errorf("%s cell %d: heat index is not finite", date, i)
				break
			}
		}
	}
	return p
}

// Phase 4: boundary alignment. Clip must mask exactly the cells whose
// centers fall outside the polygon, and the fixture boundary must keep some
// cells and drop some cells, or clipping is invisible in tests.
func validateBoundaryAlignment(boundary *domain.Boundary, temps, dews []domain.Raster) *phase {
	p := &phase{name: "Phase 4: Boundary Alignment (clipping)"}

	if len(temps) == 0 {
		p.errorf("no temperature rasters to clip")
		return p
	}

	grid := temps[0].Grid
	inside := 0
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			lon, lat := grid.Center(col, row)
			if boundary.Contains(lon, lat) {
				inside++
			}
		}
	}
	if inside == 0 {
		p.errorf("boundary keeps no cells of the fixture grid")
	}
	if inside == grid.Cells() {
		p.errorf("boundary keeps every cell; clipping would be invisible")
	}

	for _, temp := range temps {
		date := temp.Timestamp.Format(domain.DateLayout)
		clipped := boundary.Clip(temp)
		band, err := clipped.Band(domain.BandTemperature)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		_, _, _, valid := band.Stats()
		if valid != inside {
			p.errorf("%s: clip kept %d cells, boundary contains %d centers", date, valid, inside)
		}
	}
	for _, dew := range dews {
		date := dew.Timestamp.Format(domain.DateLayout)
		clipped := boundary.Clip(dew)
		band, err := clipped.Band(domain.BandDewpoint)
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		_, _, _, valid := band.Stats()
		if valid != inside {
			p.errorf("%s dewpoint: clip kept %d cells, boundary contains %d centers", date, valid, inside)
		}
	}
	return p
}
