package httpclient

import (
	"strconv"
	"sync"
	"time"

	"github.com/iptuapi/iptuapi-go/trace"
)

// RateLimit is the quota reported by the API on the most recent response.
type RateLimit struct {
	Limit     int
	Remaining int
	// Reset is the epoch second at which the quota window resets
	Reset int64
}

// ResetTime returns Reset as a time.Time
func (r RateLimit) ResetTime() time.Time {
	return time.Unix(r.Reset, 0)
}

// parseRateLimit reads the three rate-limit headers. All three must be present and numeric.
func parseRateLimit(headers map[string][]string) (RateLimit, bool) {
	limitRaw, ok1 := headerValue(headers, trace.HeaderRateLimitLimit)
	remainingRaw, ok2 := headerValue(headers, trace.HeaderRateLimitRemaining)
	resetRaw, ok3 := headerValue(headers, trace.HeaderRateLimitReset)
	if !ok1 || !ok2 || !ok3 {
		return RateLimit{}, false
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return RateLimit{}, false
	}
	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return RateLimit{}, false
	}
	reset, err := strconv.ParseInt(resetRaw, 10, 64)
	if err != nil {
		return RateLimit{}, false
	}
	return RateLimit{Limit: limit, Remaining: remaining, Reset: reset}, true
}

// responseState is the only state shared across calls. Last writer wins.
type responseState struct {
	mu            sync.RWMutex
	rateLimit     *RateLimit
	lastRequestID string
}

// observe records the headers of a response that reached the client.
func (s *responseState) observe(headers map[string][]string) (RateLimit, bool) {
	rl, ok := parseRateLimit(headers)
	requestID, _ := headerValue(headers, HeaderXRequestID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.rateLimit = &rl
	}
	s.lastRequestID = requestID
	return rl, ok
}

func (s *responseState) snapshot() (RateLimit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rateLimit == nil {
		return RateLimit{}, false
	}
	return *s.rateLimit, true
}

func (s *responseState) requestID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRequestID
}
