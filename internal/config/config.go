package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Raster archive service.
	ArchiveBaseURL   string        `envconfig:"ARCHIVE_BASE_URL" default:"http://localhost:8081"`
	ArchiveDataset   string        `envconfig:"ARCHIVE_DATASET" default:"ECMWF/ERA5/DAILY"`
	ArchiveTimeout   time.Duration `envconfig:"ARCHIVE_TIMEOUT" default:"30s"`
	ArchiveRPS       float64       `envconfig:"ARCHIVE_RPS" default:"5"`
	ArchiveBurst     int           `envconfig:"ARCHIVE_BURST" default:"10"`
	ArchiveRetries   int           `envconfig:"ARCHIVE_RETRIES" default:"3"`
	ArchiveCacheSize int           `envconfig:"ARCHIVE_CACHE_SIZE" default:"64"`

	// Dataset selection.
	TemperatureBand string `envconfig:"TEMPERATURE_BAND" default:"mean_2m_air_temperature"`
	DewpointBand    string `envconfig:"DEWPOINT_BAND" default:"dewpoint_2m_temperature"`
	BoundaryAsset   string `envconfig:"BOUNDARY_ASSET" default:"projects/heatindex/assets/northern-nigeria"`

	// Processing window, day granularity. Parsed into Start/End by Load.
	StartDate string    `envconfig:"START_DATE" default:"1980-01-01"`
	EndDate   string    `envconfig:"END_DATE" default:"2025-09-15"`
	Start     time.Time `ignored:"true"`
	End       time.Time `ignored:"true"`

	PipelineWorkers int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"24h"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Credential sources, tried in order. See the credentials package.
	SecretFile string `envconfig:"SECRET_FILE" default:"/run/secrets/geoanalytics/service_account.json"`
	KeyFile    string `envconfig:"KEY_FILE" default:"keys/service_account.json"`

	// Optional palette override file (YAML). Empty uses built-in palettes.
	PaletteFile string `envconfig:"PALETTE_FILE" default:""`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(domain.DateLayout, cfg.StartDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE %q: %w", cfg.StartDate, err)
	}
	end, err := time.ParseInLocation(domain.DateLayout, cfg.EndDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid END_DATE %q: %w", cfg.EndDate, err)
	}
	if !end.After(start) {
		return nil, errors.New("END_DATE must be after START_DATE")
	}
	cfg.Start = start
	cfg.End = end

	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.ArchiveTimeout <= 0 {
		return nil, errors.New("ARCHIVE_TIMEOUT must be positive")
	}
	if cfg.ArchiveRPS <= 0 {
		return nil, errors.New("ARCHIVE_RPS must be positive")
	}
	if cfg.ArchiveBurst <= 0 {
		return nil, errors.New("ARCHIVE_BURST must be positive")
	}
	if cfg.ArchiveRetries < 0 {
		return nil, errors.New("ARCHIVE_RETRIES must not be negative")
	}
	if cfg.ArchiveCacheSize <= 0 {
		return nil, errors.New("ARCHIVE_CACHE_SIZE must be positive")
	}
	if cfg.PipelineWorkers <= 0 {
		return nil, errors.New("PIPELINE_WORKERS must be positive")
	}
	if cfg.TemperatureBand == "" {
		return nil, errors.New("TEMPERATURE_BAND is required")
	}
	if cfg.DewpointBand == "" {
		return nil, errors.New("DEWPOINT_BAND is required")
	}

	return &cfg, nil
}
