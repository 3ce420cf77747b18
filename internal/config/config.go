// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"false"`

	// Reconciliation
	SyncWorkers      int           `envconfig:"SYNC_WORKERS" default:"10"`
	SyncRetries      int           `envconfig:"SYNC_RETRIES" default:"3"`
	SyncRetryStep    time.Duration `envconfig:"SYNC_RETRY_STEP" default:"1s"`
	SyncTicketSeries []string      `envconfig:"SYNC_TICKET_SERIES" default:"80,99,102"`

	// Welivery
	WeliveryBaseURL  string `envconfig:"WELIVERY_BASE_URL" default:"https://api.welivery.com.ar"`
	WeliveryUser     string `envconfig:"WELIVERY_USER"`
	WeliveryPassword string `envconfig:"WELIVERY_PASSWORD"`
	WeliveryEnabled  bool   `envconfig:"WELIVERY_ENABLED" default:"true"`
	WeliveryUseMock  bool   `envconfig:"WELIVERY_USE_MOCK" default:"false"`

	// Andreani
	AndreaniBaseURL  string `envconfig:"ANDREANI_BASE_URL" default:"https://apis.andreani.com"`
	AndreaniUser     string `envconfig:"ANDREANI_USER"`
	AndreaniPassword string `envconfig:"ANDREANI_PASSWORD"`
	AndreaniContract string `envconfig:"ANDREANI_CONTRACT"`
	AndreaniEnabled  bool   `envconfig:"ANDREANI_ENABLED" default:"true"`
	AndreaniUseMock  bool   `envconfig:"ANDREANI_USE_MOCK" default:"false"`

	// Labels
	LabelsEnabled  bool   `envconfig:"LABELS_ENABLED" default:"true"`
	LabelsSpoolDir string `envconfig:"LABELS_SPOOL_DIR" default:"/var/spool/courier-labels"`

	// Sales reporting
	ReportingBaseURL  string `envconfig:"REPORTING_BASE_URL"`
	ReportingUser     string `envconfig:"REPORTING_USER"`
	ReportingPassword string `envconfig:"REPORTING_PASSWORD"`
	ReportingEnabled  bool   `envconfig:"REPORTING_ENABLED" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"courier-sync"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("welivery.enabled", c.WeliveryEnabled),
		attribute.Bool("andreani.enabled", c.AndreaniEnabled),
		attribute.Bool("reporting.enabled", c.ReportingEnabled),
	}
}
