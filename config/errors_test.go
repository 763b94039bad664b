package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "with_action",
			err:      NewMissingFieldError("api.key", "IPTU_API_KEY"),
			expected: "config: api.key is required (set IPTU_API_KEY or add api.key to iptuapi.yaml)",
		},
		{
			name:     "with_options",
			err:      NewInvalidFieldError("log.level", `unknown level "loud"`, []string{"debug", "info"}),
			expected: `config: log.level unknown level "loud" (must be one of: debug, info)`,
		},
		{
			name:     "without_action",
			err:      NewInvalidFieldError("api.timeout", "must be positive", nil),
			expected: "config: api.timeout must be positive",
		},
		{
			name:     "empty",
			err:      &ConfigError{},
			expected: "config:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConfigErrorCategories(t *testing.T) {
	assert.Equal(t, CategoryMissing, NewMissingFieldError("api.key", "IPTU_API_KEY").Category)
	assert.Equal(t, CategoryInvalid, NewInvalidFieldError("api.timeout", "must be positive", nil).Category)
}

func TestWrapInvalidKeepsCause(t *testing.T) {
	cause := errors.New("backoff factor must be >= 1")
	err := wrapInvalid("retry", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "config: retry backoff factor must be >= 1", err.Error())
	assert.NoError(t, NewMissingFieldError("api.key", "IPTU_API_KEY").Unwrap())
}
