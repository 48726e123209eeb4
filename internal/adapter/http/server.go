// Package http exposes the derived heat-index archive over HTTP: rendered
// PNG layers, per-day band statistics, the list of available dates, and the
// usual health, readiness, and metrics endpoints, plus a small embedded
// dashboard for browsing layers day by day.
package http

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
	"github.com/couchcryptid/heat-index-etl/internal/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed index.html
var indexHTML []byte

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LayerStore provides the derived rasters the API serves. Get reports an
// error for days the store does not hold.
type LayerStore interface {
	Get(ts time.Time) (domain.Raster, error)
	Dates() []string
	First() (domain.Raster, bool)
}

// Server exposes the layer API, the dashboard, and the health, readiness,
// and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      LayerStore
	palettes   map[string]render.Palette
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the API and operational routes.
func NewServer(addr string, store LayerStore, ready ReadinessChecker, palettes map[string]render.Palette, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:    store,
		palettes: palettes,
		logger:   logger,
		metrics:  metrics,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/dates", s.handleDates)
	mux.HandleFunc("GET /api/v1/layers/{band}/{date}", s.handleLayer)
	mux.HandleFunc("GET /api/v1/rasters/{date}", s.handleRaster)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML) //nolint:errcheck // best-effort static page
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleDates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dates": s.store.Dates()})
}

// handleLayer serves one band of one day as a PNG. Days the store does not
// hold render as a fully transparent tile so map clients can page through
// gaps without special-casing them.
func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	band := r.PathValue("band")
	palette, ok := s.palettes[band]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown band " + band})
		return
	}

	date := strings.TrimSuffix(r.PathValue("date"), ".png")
	ts, err := time.ParseInLocation(domain.DateLayout, date, time.UTC)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date " + date})
		return
	}

	began := time.Now()
	img := s.layerImage(ts, band, palette)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.logger.Error("encode layer", "band", band, "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	s.metrics.LayersRendered.WithLabelValues(band).Inc()
	s.metrics.RenderDuration.Observe(time.Since(began).Seconds())

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes()) //nolint:errcheck // client gone, nothing to do
}

func (s *Server) layerImage(ts time.Time, band string, palette render.Palette) *image.NRGBA {
	raster, err := s.store.Get(ts)
	if err == nil {
		if img, rerr := render.Layer(raster, band, palette); rerr == nil {
			return img
		}
	}

	// Fall back to a transparent tile shaped like the archive's grid.
	width, height := 256, 256
	if first, ok := s.store.First(); ok {
		width, height = first.Grid.Width, first.Grid.Height
	}
	return render.EmptyLayer(width, height)
}

// rasterSummary is the JSON shape of one derived day: band statistics
// instead of raw samples, which the PNG layers already carry.
type rasterSummary struct {
	Timestamp   string        `json:"timestamp"`
	ProcessedAt string        `json:"processed_at"`
	Grid        domain.Grid   `json:"grid"`
	Bands       []bandSummary `json:"bands"`
}

type bandSummary struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Valid int     `json:"valid"`
}

func (s *Server) handleRaster(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	ts, err := time.ParseInLocation(domain.DateLayout, date, time.UTC)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date " + date})
		return
	}

	raster, err := s.store.Get(ts)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no raster for " + date})
		return
	}

	summary := rasterSummary{
		Timestamp:   raster.Timestamp.UTC().Format(time.RFC3339),
		ProcessedAt: raster.ProcessedAt.UTC().Format(time.RFC3339),
		Grid:        raster.Grid,
		Bands:       make([]bandSummary, 0, len(raster.Bands)),
	}
	for _, b := range raster.Bands {
		min, max, mean, valid := b.Stats()
		summary.Bands = append(summary.Bands, bandSummary{
			Name:  b.Name,
			Min:   min,
			Max:   max,
			Mean:  mean,
			Valid: valid,
		})
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
