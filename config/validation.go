package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/iptuapi/iptuapi-go/observability"
)

// Log levels accepted by log.level
var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks cfg and returns the first *ConfigError found.
func Validate(cfg *Config) error {
	if err := validateAPI(&cfg.API); err != nil {
		return err
	}
	if err := validateRetry(&cfg.Retry); err != nil {
		return err
	}
	if err := validateLog(&cfg.Log); err != nil {
		return err
	}
	return validateTelemetry(cfg.Telemetry)
}

func validateAPI(cfg *APIConfig) error {
	if strings.TrimSpace(cfg.Key) == "" {
		return NewMissingFieldError("api.key", EnvPrefix+"API_KEY")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewInvalidFieldError("api.base_url", fmt.Sprintf("invalid url %q", cfg.BaseURL), nil)
	}

	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("api.timeout", fmt.Sprintf("must be positive, got %s", cfg.Timeout), nil)
	}
	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if err := cfg.Policy().Validate(); err != nil {
		return wrapInvalid("retry", err)
	}
	for _, status := range cfg.RetryableStatuses {
		if status < 100 || status > 599 {
			return NewInvalidFieldError("retry.retryable_statuses", fmt.Sprintf("invalid http status %d", status), nil)
		}
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level), validLogLevels)
	}
	return nil
}

func validateTelemetry(cfg observability.Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return wrapInvalid("telemetry", err)
	}
	return nil
}
