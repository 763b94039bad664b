// Package config loads the client configuration with koanf.
//
// Sources, lowest priority first:
//  1. built-in defaults
//  2. a YAML file (iptuapi.yaml, or the path in IPTU_CONFIG_FILE)
//  3. IPTU_* environment variables, e.g. IPTU_API_KEY, IPTU_API_BASE_URL,
//     IPTU_RETRY_MAX_RETRIES, IPTU_LOG_LEVEL, IPTU_TELEMETRY_ENABLED
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/iptuapi/iptuapi-go/httpclient"
)

const (
	// DefaultFile is the YAML file read by Load when IPTU_CONFIG_FILE is unset
	DefaultFile = "iptuapi.yaml"
	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "IPTU_"
	// EnvConfigFile overrides the YAML file path
	EnvConfigFile = EnvPrefix + "CONFIG_FILE"
)

// Load loads configuration from defaults, the YAML file and the environment.
// A missing YAML file is not an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = DefaultFile
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadFromBytes loads defaults overlaid with YAML data. The environment is not consulted.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey maps IPTU_API_BASE_URL to api.base_url: the first segment is the section.
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}
	key = section + "." + field

	if key == "retry.retryable_statuses" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	retry := httpclient.DefaultRetryPolicy()
	defaults := map[string]any{
		"api.base_url":   httpclient.DefaultBaseURL,
		"api.timeout":    httpclient.DefaultTimeout.String(),
		"api.user_agent": httpclient.DefaultUserAgent,

		"retry.max_retries":        retry.MaxRetries,
		"retry.initial_delay":      retry.InitialDelay.String(),
		"retry.max_delay":          retry.MaxDelay.String(),
		"retry.backoff_factor":     retry.BackoffFactor,
		"retry.retryable_statuses": retry.RetryableStatuses,

		"log.level":  "info",
		"log.pretty": false,

		"telemetry.enabled": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// Policy converts the retry section to an httpclient.RetryPolicy.
func (r RetryConfig) Policy() httpclient.RetryPolicy {
	return httpclient.RetryPolicy{
		MaxRetries:        r.MaxRetries,
		InitialDelay:      r.InitialDelay,
		MaxDelay:          r.MaxDelay,
		BackoffFactor:     r.BackoffFactor,
		RetryableStatuses: append([]int(nil), r.RetryableStatuses...),
	}
}
