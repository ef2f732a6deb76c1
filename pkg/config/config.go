package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv        = "STORAGESCOUT_APP_ENV"
	EnvPort          = "STORAGESCOUT_APP_PORT"
	EnvRedisURL      = "STORAGESCOUT_REDIS_URL"
	EnvAuthSecret    = "STORAGESCOUT_AUTH_SECRET"
	EnvGCSBucket     = "STORAGESCOUT_GCS_BUCKET_NAME"
	EnvSearchBaseURL = "STORAGESCOUT_SEARCH_BASE_URL"
	EnvCatalogURL    = "STORAGESCOUT_CATALOG_BASE_URL"
	EnvMapsAPIKey    = "STORAGESCOUT_GOOGLE_MAPS_API_KEY"
)

type Config struct {
	App        AppConfig
	Auth       AuthConfig
	Redis      RedisConfig
	GCP        GCPConfig
	GCS        GCSConfig
	Search     SearchConfig
	Catalog    CatalogConfig
	GoogleMaps GoogleMapsConfig
	Media      MediaConfig
	Camera     CameraConfig
	RateLimit  RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STORAGESCOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"STORAGESCOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORAGESCOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORAGESCOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type AuthConfig struct {
	Secret            string `envconfig:"STORAGESCOUT_AUTH_SECRET" required:"true"`
	Issuer            string `envconfig:"STORAGESCOUT_AUTH_ISSUER" default:"storagescout"`
	ExpirationMinutes int    `envconfig:"STORAGESCOUT_AUTH_EXPIRATION_MINUTES" default:"720"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORAGESCOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORAGESCOUT_REDIS_ADDR"`
	Password     string        `envconfig:"STORAGESCOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORAGESCOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORAGESCOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORAGESCOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORAGESCOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORAGESCOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORAGESCOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"STORAGESCOUT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STORAGESCOUT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"STORAGESCOUT_GCS_BUCKET_NAME" required:"true"`
}

// SearchConfig points at the external matcher service. Page sizes mirror the
// original client behavior: a single best match first, then batches of three.
type SearchConfig struct {
	BaseURL       string        `envconfig:"STORAGESCOUT_SEARCH_BASE_URL" required:"true"`
	FirstPageSize int           `envconfig:"STORAGESCOUT_SEARCH_FIRST_PAGE_SIZE" default:"1"`
	PageSize      int           `envconfig:"STORAGESCOUT_SEARCH_PAGE_SIZE" default:"3"`
	SessionTTL    time.Duration `envconfig:"STORAGESCOUT_SEARCH_SESSION_TTL" default:"30m"`
}

type CatalogConfig struct {
	BaseURL string `envconfig:"STORAGESCOUT_CATALOG_BASE_URL" required:"true"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"STORAGESCOUT_GOOGLE_MAPS_API_KEY" required:"true"`
}

type MediaConfig struct {
	MaxPhotos       int    `envconfig:"STORAGESCOUT_MEDIA_MAX_PHOTOS" default:"10"`
	PreviewDir      string `envconfig:"STORAGESCOUT_MEDIA_PREVIEW_DIR" default:"/tmp/storagescout/previews"`
	PreviewMaxEdge  int    `envconfig:"STORAGESCOUT_MEDIA_PREVIEW_MAX_EDGE" default:"256"`
	RequireLocation bool   `envconfig:"STORAGESCOUT_MEDIA_REQUIRE_LOCATION" default:"false"`
	MaxUploadMB     int    `envconfig:"STORAGESCOUT_MEDIA_MAX_UPLOAD_MB" default:"20"`
}

type CameraConfig struct {
	BackURL     string        `envconfig:"STORAGESCOUT_CAMERA_BACK_URL"`
	FrontURL    string        `envconfig:"STORAGESCOUT_CAMERA_FRONT_URL"`
	Width       int           `envconfig:"STORAGESCOUT_CAMERA_WIDTH" default:"1920"`
	Height      int           `envconfig:"STORAGESCOUT_CAMERA_HEIGHT" default:"1080"`
	SettleDelay time.Duration `envconfig:"STORAGESCOUT_CAMERA_SETTLE_DELAY" default:"100ms"`
	Timeout     time.Duration `envconfig:"STORAGESCOUT_CAMERA_TIMEOUT" default:"10s"`
}

// Configured reports whether a snapshot endpoint exists for at least one facing.
func (c CameraConfig) Configured() bool {
	return strings.TrimSpace(c.BackURL) != "" || strings.TrimSpace(c.FrontURL) != ""
}

type RateLimitConfig struct {
	SearchWindow time.Duration `envconfig:"STORAGESCOUT_RATE_LIMIT_SEARCH_WINDOW" default:"1m"`
	SearchLimit  int           `envconfig:"STORAGESCOUT_RATE_LIMIT_SEARCH_LIMIT" default:"30"`
	WriteWindow  time.Duration `envconfig:"STORAGESCOUT_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteLimit   int           `envconfig:"STORAGESCOUT_RATE_LIMIT_WRITE_LIMIT" default:"10"`
}
