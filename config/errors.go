package config

import (
	"fmt"
	"strings"
)

// Error categories
const (
	CategoryMissing = "missing"
	CategoryInvalid = "invalid"
)

// ConfigError reports one bad configuration field and how to fix it.
// Cause, when set, is the error of the component that rejected the value,
// e.g. httpclient.ErrInvalidRetryPolicy, and is reachable through errors.Is.
//
//nolint:revive // config.ConfigError reads better than config.Error at call sites
type ConfigError struct {
	Category string // CategoryMissing or CategoryInvalid
	Field    string // dotted koanf path, e.g. "api.key", "retry.max_delay"
	Message  string
	Action   string // what to change, when known
	Cause    error
}

// Error renders "config: <field> <message> (<action>)".
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config:")
	if e.Field != "" {
		b.WriteString(" " + e.Field)
	}
	if e.Message != "" {
		b.WriteString(" " + e.Message)
	}
	if e.Action != "" {
		b.WriteString(" (" + e.Action + ")")
	}
	return b.String()
}

// Unwrap returns Cause
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewMissingFieldError reports a required field that no source provided.
func NewMissingFieldError(field, envVar string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "is required",
		Action:   fmt.Sprintf("set %s or add %s to %s", envVar, field, DefaultFile),
	}
}

// NewInvalidFieldError reports a rejected value, listing the accepted ones when known.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return err
}

// wrapInvalid reports a value rejected by another package's validation
func wrapInvalid(field string, cause error) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  cause.Error(),
		Cause:    cause,
	}
}
