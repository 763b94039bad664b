// Package testing provides testing utilities for code built on the IPTU API client.
//
// # Mocks
//
// The mocks subpackage provides MockTransport, a scripted httpclient.Transport
// that replays queued responses and errors and records every request it sees.
//
// # Fixtures
//
// The fixtures subpackage builds canned API responses:
//   - JSONResponse for arbitrary status codes and bodies
//   - SuccessResponse with the default rate-limit headers and request id
//   - ErrorResponse with the API's {"detail": ...} error envelope
//
// # Usage
//
// Import the specific subpackages you need:
//
//	import (
//		"github.com/iptuapi/iptuapi-go/testing/mocks"
//		"github.com/iptuapi/iptuapi-go/testing/fixtures"
//	)
package testing
