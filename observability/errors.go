package observability

import "errors"

// ErrNilConfig is returned when Validate is called on a nil Config pointer.
var ErrNilConfig = errors.New("observability: config is nil")

// ErrMissingServiceName is returned when telemetry is enabled without a service name.
var ErrMissingServiceName = errors.New("observability: service name is required when telemetry is enabled")

// ErrInvalidSampleRate is returned when the sample rate is outside [0.0, 1.0].
var ErrInvalidSampleRate = errors.New("observability: sample rate must be between 0.0 and 1.0")

// ErrInvalidProtocol is returned when the protocol is not "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be either 'http' or 'grpc'")

// ErrInvalidEndpointFormat is returned when the endpoint does not match the protocol.
// gRPC endpoints are host:port; HTTP endpoints are URLs with a scheme.
var ErrInvalidEndpointFormat = errors.New("observability: invalid endpoint format for protocol")
