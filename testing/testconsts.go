package testing

import "time"

// Logger Constants
const (
	// TestLoggerLevelDebug is the debug log level used in most tests
	TestLoggerLevelDebug = "debug"
	// TestLoggerLevelDisabled completely disables logging in tests
	TestLoggerLevelDisabled = "disabled"
)

// Client Constants
// Common client configuration values used across test files.
const (
	TestAPIKey    = "test-api-key"
	TestBaseURL   = "https://api.test.local/v1"
	TestRequestID = "req_test123"
	TestUserAgent = "iptuapi-go-test"
)

// Domain Constants
// Common property identifiers used in endpoint tests.
const (
	TestSQL      = "000.000.0000-0"
	TestCEP      = "01310-100"
	TestCNPJ     = "00.000.000/0001-91"
	TestStreet   = "Avenida Paulista"
	TestNumber   = "1000"
	TestCitySP   = "sp"
	TestCityBH   = "bh"
	TestMesAno   = "2024-01"
	TestBaseYear = 2024
)

// Time Duration Constants
const (
	// TestShortDelay keeps retry tests fast
	TestShortDelay = time.Millisecond
	// TestEventuallyTimeout is the timeout for require.Eventually assertions (500ms)
	TestEventuallyTimeout = 500 * time.Millisecond
	// TestEventuallyTick is the polling interval for require.Eventually (50ms)
	TestEventuallyTick = 50 * time.Millisecond
)
