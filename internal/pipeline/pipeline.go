// Package pipeline composes the daily heat-index derivation over whole date
// ranges.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store receives the derived rasters of a run.
type Store interface {
	Store(ctx context.Context, r domain.Raster) error
}

// Options configures a Runner.
type Options struct {
	TemperatureBand string
	DewpointBand    string

	// BoundaryAsset names the clipping polygon asset. Empty disables clipping.
	BoundaryAsset string

	// Workers bounds how many days are derived concurrently.
	Workers int
}

// Result summarizes one pipeline run.
type Result struct {
	Processed int
	Skipped   int
}

// Runner fetches both source archives, derives relative humidity and heat
// index day by day, and stores the results. Days are independent, so they
// are processed by a bounded worker pool; a day with no dewpoint counterpart
// is skipped and counted rather than failing the run.
type Runner struct {
	source  domain.RasterSource
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	ready   atomic.Bool
}

// NewRunner creates a Runner with the given collaborators and observability.
func NewRunner(source domain.RasterSource, store Store, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{
		source:  source,
		store:   store,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness returns nil once at least one run has completed, or an
// error describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// Run derives heat-index rasters for every temperature raster acquired in
// [start, end).
func (r *Runner) Run(ctx context.Context, start, end time.Time) (Result, error) {
	logger := r.logger.With("run_id", uuid.NewString())
	logger.Info("pipeline run started",
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
		"workers", r.opts.Workers,
	)

	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)
	began := time.Now()

	result, err := r.run(ctx, logger, start, end)
	r.metrics.RunDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		r.metrics.PipelineRuns.WithLabelValues("error").Inc()
		logger.Error("pipeline run failed", "error", err)
		return result, err
	}

	r.metrics.PipelineRuns.WithLabelValues("success").Inc()
	r.ready.Store(true)
	logger.Info("pipeline run finished", "processed", result.Processed, "skipped", result.Skipped)
	return result, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, start, end time.Time) (Result, error) {
	var boundary *domain.Boundary
	if r.opts.BoundaryAsset != "" {
		b, err := r.source.FetchBoundary(ctx, r.opts.BoundaryAsset)
		if err != nil {
			return Result{}, fmt.Errorf("fetch boundary: %w", err)
		}
		boundary = b
	}

	temps, err := r.source.FetchRasters(ctx, r.opts.TemperatureBand, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("fetch temperature archive: %w", err)
	}
	r.metrics.RunSize.Observe(float64(len(temps)))

	dews, err := r.source.FetchRasters(ctx, r.opts.DewpointBand, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("fetch dewpoint archive: %w", err)
	}
	dewpoints := domain.NewArchive(r.opts.DewpointBand, dews)

	var (
		mu        sync.Mutex
		processed int
		skipped   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, temp := range temps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			derived, err := derive(temp, dewpoints, boundary)
			if err != nil {
				var missing *domain.MissingPairError
				if errors.As(err, &missing) {
					logger.Warn("no dewpoint raster, skipping day",
						"date", missing.Timestamp.Format(domain.DateLayout))
					r.metrics.PairsMissing.Inc()
					mu.Lock()
					skipped++
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("derive %s: %w", temp.Timestamp.Format(domain.DateLayout), err)
			}

			if err := r.store.Store(gctx, domain.Stamped(derived)); err != nil {
				return fmt.Errorf("store %s: %w", derived.Timestamp.Format(domain.DateLayout), err)
			}
			r.metrics.RastersProcessed.Inc()
			mu.Lock()
			processed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Processed: processed, Skipped: skipped}, err
	}
	return Result{Processed: processed, Skipped: skipped}, nil
}
