// Package config loads the tally runtime configuration from TALLY_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/gabapcia/tally/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// prefix is prepended to every variable name, e.g. TALLY_LOG_LEVEL.
const prefix = "tally"

// Redis configures the snapshot store. An empty Addr disables publishing.
type Redis struct {
	Addr     string `envconfig:"ADDR"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"gte=0"`
}

// Telemetry configures the OTLP exporters. The exporter endpoint itself is read
// by the OpenTelemetry SDK from the standard OTEL_EXPORTER_OTLP_* variables.
type Telemetry struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"tally" validate:"required_if=Enabled true"`
}

// HTTPSource configures how remote inputs are fetched.
type HTTPSource struct {
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s" validate:"gt=0"`
	RetryMax int           `envconfig:"RETRY_MAX" default:"2" validate:"gte=0"`
}

// Publish configures retries around snapshot publishing.
type Publish struct {
	Attempts uint          `envconfig:"ATTEMPTS" default:"3" validate:"gte=1"`
	Delay    time.Duration `envconfig:"DELAY" default:"500ms"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel  string     `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Redis     Redis      `envconfig:"REDIS"`
	Telemetry Telemetry  `envconfig:"OTEL"`
	Source    HTTPSource `envconfig:"HTTP"`
	Publish   Publish    `envconfig:"PUBLISH"`
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
