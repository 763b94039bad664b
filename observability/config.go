// Package observability installs OpenTelemetry trace and metric providers
// that receive the spans and metrics emitted by the IPTU API client.
//
// The client itself only talks to the otel global API; without a provider
// its telemetry is a no-op. Applications that already configure OpenTelemetry
// do not need this package.
package observability

import (
	"fmt"
	"strings"
	"time"
)

// EndpointStdout selects the pretty-printing stdout exporters
const EndpointStdout = "stdout"

// OTLP protocols
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Defaults applied by ApplyDefaults
const (
	DefaultServiceName    = "iptuapi-go"
	DefaultSampleRate     = 1.0
	DefaultMetricInterval = 60 * time.Second
	DefaultExportTimeout  = 10 * time.Second
)

// Config selects where telemetry is exported.
type Config struct {
	// Enabled turns telemetry on. When false NewProvider returns a no-op provider.
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// ServiceName is reported as service.name
	ServiceName string `koanf:"service_name" json:"service_name" yaml:"service_name"`
	// Endpoint is EndpointStdout, a URL for ProtocolHTTP or host:port for ProtocolGRPC
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Protocol is ProtocolHTTP or ProtocolGRPC. Ignored for stdout.
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol"`
	// Insecure disables TLS for gRPC endpoints
	Insecure bool `koanf:"insecure" json:"insecure" yaml:"insecure"`
	// Headers are sent with every OTLP export, e.g. for authentication
	Headers map[string]string `koanf:"headers" json:"-" yaml:"headers"`
	// SampleRate is the fraction of calls traced. Zero means DefaultSampleRate.
	SampleRate float64 `koanf:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
	// MetricInterval is the period of metric exports
	MetricInterval time.Duration `koanf:"metric_interval" json:"metric_interval" yaml:"metric_interval"`
	// ExportTimeout bounds each export
	ExportTimeout time.Duration `koanf:"export_timeout" json:"export_timeout" yaml:"export_timeout"`
}

// ApplyDefaults fills zero fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = DefaultMetricInterval
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = DefaultExportTimeout
	}
}

// Validate checks an enabled configuration. A disabled one is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}

	hasScheme := strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://")
	switch c.Protocol {
	case ProtocolHTTP:
		if !hasScheme {
			return fmt.Errorf("%w: http endpoint %q needs an http:// or https:// scheme", ErrInvalidEndpointFormat, c.Endpoint)
		}
	case ProtocolGRPC:
		if hasScheme {
			return fmt.Errorf("%w: grpc endpoint %q must be host:port", ErrInvalidEndpointFormat, c.Endpoint)
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidProtocol, c.Protocol)
	}
	return nil
}
