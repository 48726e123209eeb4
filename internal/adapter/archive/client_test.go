package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/credentials"
	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDataset       = "ECMWF/ERA5/DAILY"
	testEmail         = "pipeline@heatindex.example.com"
	testKey           = "test-private-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"

	rastersBody = `{"rasters":[
		{"timestamp":"2000-07-14T00:00:00Z","band":"mean_2m_air_temperature",
		 "grid":{"origin_lon":7,"origin_lat":9,"cell_size":0.25,"width":2,"height":2},
		 "samples":[300,301,null,303]},
		{"timestamp":"2000-07-15T00:00:00Z","band":"mean_2m_air_temperature",
		 "grid":{"origin_lon":7,"origin_lat":9,"cell_size":0.25,"width":2,"height":2},
		 "samples":[290,291,292,293]}
	]}`

	boundaryBody = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[7.0,9.0],[8.0,9.0],[8.0,10.0],[7.0,10.0],[7.0,9.0]]]}}]}`
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testCredential() *credentials.Credential {
	return &credentials.Credential{ClientEmail: testEmail, PrivateKey: testKey}
}

func testClient(baseURL string, retries int) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		Dataset: testDataset,
		Timeout: 5 * time.Second,
		RPS:     1000,
		Burst:   1000,
		Retries: retries,
	}, testCredential(), slog.New(slog.NewTextHandler(io.Discard, nil)), testMetrics())
}

func TestClient_FetchRasters_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.EscapedPath(), "ECMWF%2FERA5%2FDAILY")
		assert.Equal(t, "/v1/datasets/ECMWF/ERA5/DAILY/rasters", r.URL.Path)
		assert.Equal(t, "mean_2m_air_temperature", r.URL.Query().Get("band"))
		assert.Equal(t, "2000-07-14", r.URL.Query().Get("start"))
		assert.Equal(t, "2000-07-16", r.URL.Query().Get("end"))
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		assert.Equal(t, testEmail, r.Header.Get("X-Client-Email"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(rastersBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	rasters, err := c.FetchRasters(context.Background(),
		"mean_2m_air_temperature",
		time.Date(2000, 7, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 7, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rasters, 2)
	assert.Equal(t, time.Date(2000, 7, 14, 0, 0, 0, 0, time.UTC), rasters[0].Timestamp)
	assert.Equal(t, 2, rasters[0].Grid.Width)

	band, err := rasters[0].Band("mean_2m_air_temperature")
	require.NoError(t, err)
	assert.Equal(t, 300.0, band.Samples[0])
	_, _, _, valid := band.Stats()
	assert.Equal(t, 3, valid) // the null sample decodes as masked
}

func TestClient_FetchRasters_SamplesDoNotMatchGrid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"rasters":[{"timestamp":"2000-07-14T00:00:00Z","band":"b","grid":{"origin_lon":7,"origin_lat":9,"cell_size":0.25,"width":2,"height":2},"samples":[1,2]}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.FetchRasters(context.Background(), "b", time.Now(), time.Now().Add(time.Hour))

	require.ErrorIs(t, err, domain.ErrGridMismatch)
}

func TestClient_FetchRasters_BadTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"rasters":[{"timestamp":"14/07/2000","band":"b","grid":{"origin_lon":7,"origin_lat":9,"cell_size":0.25,"width":1,"height":1},"samples":[1]}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.FetchRasters(context.Background(), "b", time.Now(), time.Now().Add(time.Hour))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "raster timestamp")
}

func TestClient_FetchRasters_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"not authorized for dataset"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.FetchRasters(context.Background(), "b", time.Now(), time.Now().Add(time.Hour))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "not authorized for dataset")
}

func TestClient_FetchRasters_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"rasters":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	rasters, err := c.FetchRasters(context.Background(), "b", time.Now(), time.Now().Add(time.Hour))

	require.NoError(t, err)
	assert.Empty(t, rasters)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchRasters_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	_, err := c.FetchRasters(context.Background(), "b", time.Now(), time.Now().Add(time.Hour))

	require.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchRasters_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"rasters":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv.URL, 0)
	_, err := c.FetchRasters(ctx, "b", time.Now(), time.Now().Add(time.Hour))

	require.Error(t, err)
}

func TestClient_FetchBoundary_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/assets/projects/heatindex/assets/northern-nigeria", r.URL.Path)
		assert.Contains(t, r.URL.EscapedPath(), "projects%2Fheatindex%2Fassets%2Fnorthern-nigeria")
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(boundaryBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	b, err := c.FetchBoundary(context.Background(), "projects/heatindex/assets/northern-nigeria")
	require.NoError(t, err)

	assert.Equal(t, "projects/heatindex/assets/northern-nigeria", b.Name())
	assert.True(t, b.Contains(7.5, 9.5))
	assert.False(t, b.Contains(6.5, 9.5))
}

func TestClient_FetchBoundary_NotGeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not geojson</html>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.FetchBoundary(context.Background(), "projects/heatindex/assets/northern-nigeria")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse boundary")
}
