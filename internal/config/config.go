package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all matching-core configuration.
type Config struct {
	Env      string
	Database DatabaseConfig
	Geocoder GeocoderConfig
	Parcel   ParcelConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Matching MatchingConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	PoolMin  int    `validate:"min=0"`
	PoolMax  int    `validate:"min=1,gtefield=PoolMin"`
}

// GeocoderConfig holds reverse-geocoding service configuration. A
// missing APIKey disables reverse geocoding; the pipeline degrades to
// coordinate-only property creation rather than crashing.
type GeocoderConfig struct {
	BaseURL string `validate:"required,url"`
	APIKey  string
	// QPS caps outbound request rate against the provider's limits.
	QPS     float64 `validate:"gt=0"`
	Timeout time.Duration
}

// Enabled reports whether the reverse-geocoding source is configured.
func (g GeocoderConfig) Enabled() bool {
	return g.APIKey != "" && g.BaseURL != ""
}

// ParcelConfig holds parcel-data service configuration. An empty APIKey
// disables the parcel source entirely; that is a supported deployment,
// not an error.
type ParcelConfig struct {
	BaseURL string `validate:"omitempty,url"`
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether the parcel-data source is configured.
func (p ParcelConfig) Enabled() bool {
	return p.APIKey != "" && p.BaseURL != ""
}

// RedisConfig holds the optional reverse-geocode cache configuration.
// An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether the geocode cache is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// StorageConfig locates the photo blob store the worker reads from.
type StorageConfig struct {
	Dir string `validate:"required"`
}

// MatchingConfig holds the tunable matching constants. The defaults are
// the reference behavior; this struct is the single override point.
type MatchingConfig struct {
	// RadiusMeters bounds the candidate proximity search.
	RadiusMeters int `validate:"min=1"`
	// MinConfidence is the score a candidate must meet to match.
	MinConfidence float64 `validate:"gte=0,lte=1"`
}

// WorkerConfig holds the bounded worker-pool configuration.
type WorkerConfig struct {
	Count      int `validate:"min=1"`
	QueueDepth int `validate:"min=1"`
	// PhotoTimeout bounds one photo's full pipeline run.
	PhotoTimeout time.Duration `validate:"min=1s"`
	// BatchDelay throttles consecutive submissions in a batch so
	// third-party API rate limits are not exhausted.
	BatchDelay time.Duration `validate:"min=0"`
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for
// development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "photomatch")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("GEOCODER_BASE_URL", "https://maps.googleapis.com/maps/api/geocode")
	v.SetDefault("GEOCODER_QPS", 5.0)
	v.SetDefault("GEOCODER_TIMEOUT_SECONDS", 10)
	v.SetDefault("PARCEL_BASE_URL", "https://app.regrid.com/api/v2")
	v.SetDefault("PARCEL_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PHOTO_STORAGE_DIR", "./photos")
	v.SetDefault("GEOCODE_CACHE_TTL_HOURS", 24)
	v.SetDefault("MATCH_RADIUS_METERS", 25)
	v.SetDefault("MATCH_MIN_CONFIDENCE", 0.75)
	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("WORKER_QUEUE_DEPTH", 64)
	v.SetDefault("PHOTO_TIMEOUT_SECONDS", 120)
	v.SetDefault("BATCH_DELAY_MS", 250)

	v.AutomaticEnv()

	cfg := &Config{
		Env: v.GetString("ENV"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		Geocoder: GeocoderConfig{
			BaseURL: v.GetString("GEOCODER_BASE_URL"),
			APIKey:  v.GetString("GEOCODER_API_KEY"),
			QPS:     v.GetFloat64("GEOCODER_QPS"),
			Timeout: time.Duration(v.GetInt("GEOCODER_TIMEOUT_SECONDS")) * time.Second,
		},
		Parcel: ParcelConfig{
			BaseURL: v.GetString("PARCEL_BASE_URL"),
			APIKey:  v.GetString("PARCEL_API_KEY"),
			Timeout: time.Duration(v.GetInt("PARCEL_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      time.Duration(v.GetInt("GEOCODE_CACHE_TTL_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Dir: v.GetString("PHOTO_STORAGE_DIR"),
		},
		Matching: MatchingConfig{
			RadiusMeters:  v.GetInt("MATCH_RADIUS_METERS"),
			MinConfidence: v.GetFloat64("MATCH_MIN_CONFIDENCE"),
		},
		Worker: WorkerConfig{
			Count:        v.GetInt("WORKER_COUNT"),
			QueueDepth:   v.GetInt("WORKER_QUEUE_DEPTH"),
			PhotoTimeout: time.Duration(v.GetInt("PHOTO_TIMEOUT_SECONDS")) * time.Second,
			BatchDelay:   time.Duration(v.GetInt("BATCH_DELAY_MS")) * time.Millisecond,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%s: %s", first.Namespace(), describeValidation(first))
		}
		return err
	}
	return nil
}

// describeValidation converts a validator.FieldError to a human-readable message.
func describeValidation(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "must be greater than " + err.Param()
	case "gte":
		return "must be greater than or equal to " + err.Param()
	case "lt":
		return "must be less than " + err.Param()
	case "lte":
		return "must be less than or equal to " + err.Param()
	case "gtefield":
		return "must be greater than or equal to " + err.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "validation failed for tag: " + err.Tag()
	}
}
