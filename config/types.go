package config

import (
	"time"

	"github.com/iptuapi/iptuapi-go/observability"
)

// Config is the client configuration loaded from defaults, iptuapi.yaml and
// IPTU_* environment variables.
type Config struct {
	API   APIConfig   `koanf:"api" json:"api" yaml:"api"`
	Retry RetryConfig `koanf:"retry" json:"retry" yaml:"retry"`
	Log   LogConfig   `koanf:"log" json:"log" yaml:"log"`
	// Telemetry is optional; it is disabled unless telemetry.enabled is set
	Telemetry observability.Config `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`
}

// APIConfig holds the connection settings.
type APIConfig struct {
	// Key is the account API key. Required.
	Key       string        `koanf:"key" json:"-" yaml:"key"`
	BaseURL   string        `koanf:"base_url" json:"base_url" yaml:"base_url"`
	Timeout   time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	UserAgent string        `koanf:"user_agent" json:"user_agent" yaml:"user_agent"`
}

// RetryConfig mirrors httpclient.RetryPolicy.
type RetryConfig struct {
	MaxRetries        int           `koanf:"max_retries" json:"max_retries" yaml:"max_retries"`
	InitialDelay      time.Duration `koanf:"initial_delay" json:"initial_delay" yaml:"initial_delay"`
	MaxDelay          time.Duration `koanf:"max_delay" json:"max_delay" yaml:"max_delay"`
	BackoffFactor     float64       `koanf:"backoff_factor" json:"backoff_factor" yaml:"backoff_factor"`
	RetryableStatuses []int         `koanf:"retryable_statuses" json:"retryable_statuses" yaml:"retryable_statuses"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
