// Package archive talks to the geoanalytics raster archive service.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/credentials"
	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Config holds the archive client settings.
type Config struct {
	BaseURL string
	Dataset string
	Timeout time.Duration

	// RPS and Burst bound the request rate against the archive API.
	RPS   float64
	Burst int

	// Retries is the number of additional attempts after a failed request.
	Retries int
}

// Client implements domain.RasterSource against the archive's HTTP API.
// Requests are rate limited, retried with exponential backoff, and guarded
// by a circuit breaker so a struggling archive is not hammered.
type Client struct {
	baseURL    string
	dataset    string
	cred       *credentials.Credential
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retries    int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an archive client authenticating as cred.
func NewClient(cfg Config, cred *credentials.Credential, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		dataset: cfg.Dataset,
		cred:    cred,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "archive",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		retries: cfg.Retries,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchRasters returns every raster of the band acquired in [start, end).
func (c *Client) FetchRasters(ctx context.Context, band string, start, end time.Time) ([]domain.Raster, error) {
	params := url.Values{
		"band":  {band},
		"start": {start.UTC().Format(domain.DateLayout)},
		"end":   {end.UTC().Format(domain.DateLayout)},
	}
	u := fmt.Sprintf("%s/v1/datasets/%s/rasters?%s", c.baseURL, url.PathEscape(c.dataset), params.Encode())

	body, err := c.get(ctx, "rasters", u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s rasters: %w", band, err)
	}

	var payload rastersResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode rasters response: %w", err)
	}

	rasters := make([]domain.Raster, 0, len(payload.Rasters))
	for _, p := range payload.Rasters {
		r, err := p.raster()
		if err != nil {
			return nil, fmt.Errorf("fetch %s rasters: %w", band, err)
		}
		rasters = append(rasters, r)
	}
	c.logger.Debug("fetched rasters", "band", band, "count", len(rasters))
	return rasters, nil
}

// FetchBoundary fetches the named GeoJSON asset and parses it into a
// clipping boundary.
func (c *Client) FetchBoundary(ctx context.Context, asset string) (*domain.Boundary, error) {
	u := fmt.Sprintf("%s/v1/assets/%s", c.baseURL, url.PathEscape(asset))

	body, err := c.get(ctx, "asset", u)
	if err != nil {
		return nil, fmt.Errorf("fetch boundary %s: %w", asset, err)
	}
	return domain.ParseBoundary(asset, body)
}

// get performs one rate-limited GET with retries. Requests that open the
// circuit breaker or cancel the context are not retried.
func (c *Client) get(ctx context.Context, kind, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		started := time.Now()
		body, err := c.doOnce(ctx, rawURL)
		c.metrics.ArchiveRequestDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
		if err == nil {
			c.metrics.ArchiveRequests.WithLabelValues(kind, "success").Inc()
			return body, nil
		}
		c.metrics.ArchiveRequests.WithLabelValues(kind, "error").Inc()

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.retries {
			return nil, lastErr
		}

		delay := initialBackoff * time.Duration(math.Pow(2, float64(attempt)))
		if delay > maxBackoff {
			delay = maxBackoff
		}
		c.logger.Warn("archive request failed, retrying",
			"kind", kind,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cred.PrivateKey)
		req.Header.Set("X-Client-Email", c.cred.ClientEmail)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("archive API error: status %d: %s", resp.StatusCode, snippet)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Archive API response types.

type rastersResponse struct {
	Rasters []rasterPayload `json:"rasters"`
}

type rasterPayload struct {
	Timestamp string      `json:"timestamp"` // RFC 3339
	Band      string      `json:"band"`
	Grid      gridPayload `json:"grid"`
	Samples   []*float64  `json:"samples"` // null marks a missing sample
}

type gridPayload struct {
	OriginLon float64 `json:"origin_lon"`
	OriginLat float64 `json:"origin_lat"`
	CellSize  float64 `json:"cell_size"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

func (p rasterPayload) raster() (domain.Raster, error) {
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return domain.Raster{}, fmt.Errorf("raster timestamp %q: %w", p.Timestamp, err)
	}

	samples := make([]float64, len(p.Samples))
	for i, v := range p.Samples {
		if v == nil {
			samples[i] = math.NaN()
		} else {
			samples[i] = *v
		}
	}

	r := domain.Raster{
		Timestamp: ts.UTC(),
		Grid: domain.Grid{
			OriginLon: p.Grid.OriginLon,
			OriginLat: p.Grid.OriginLat,
			CellSize:  p.Grid.CellSize,
			Width:     p.Grid.Width,
			Height:    p.Grid.Height,
		},
		Bands: []domain.Band{{Name: p.Band, Samples: samples}},
	}
	if err := r.Validate(); err != nil {
		return domain.Raster{}, err
	}
	return r, nil
}
