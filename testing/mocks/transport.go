package mocks

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/iptuapi/iptuapi-go/httpclient"
)

// ErrNoQueuedResponse is returned by MockTransport when its queue is empty
var ErrNoQueuedResponse = errors.New("mock transport: no queued response")

// RecordedRequest is a copy of one request seen by MockTransport
type RecordedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// MockTransport is a scripted httpclient.Transport. Each call to Do consumes
// the next queued response or error and records the request.
//
// Example usage:
//
//	transport := mocks.NewMockTransport()
//	transport.AddResponse(fixtures.SuccessResponse(map[string]any{"sql": "X"}))
//	transport.AddNetworkError("connection refused")
//
//	client, _ := iptu.New("key", &httpclient.Config{Transport: transport})
type MockTransport struct {
	mu      sync.Mutex
	queue   []queued
	history []RecordedRequest
}

type queued struct {
	resp *httpclient.Response
	err  error
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Do implements httpclient.Transport
func (m *MockTransport) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, RecordedRequest{
		Method:  req.Method,
		URL:     req.URL,
		Headers: maps.Clone(req.Headers),
		Body:    append([]byte(nil), req.Body...),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.queue) == 0 {
		return nil, ErrNoQueuedResponse
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next.resp, next.err
}

// AddResponse queues a response
func (m *MockTransport) AddResponse(resp *httpclient.Response) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{resp: resp})
	return m
}

// AddResponses queues responses in order
func (m *MockTransport) AddResponses(resps ...*httpclient.Response) *MockTransport {
	for _, r := range resps {
		m.AddResponse(r)
	}
	return m
}

// AddError queues a transport error
func (m *MockTransport) AddError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{err: err})
	return m
}

// AddTimeout queues an attempt timeout
func (m *MockTransport) AddTimeout() *MockTransport {
	return m.AddError(fmt.Errorf("%w: simulated", httpclient.ErrTransportTimeout))
}

// AddNetworkError queues a connection failure
func (m *MockTransport) AddNetworkError(message string) *MockTransport {
	return m.AddError(errors.New(message))
}

// History returns a copy of the recorded requests
func (m *MockTransport) History() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.history))
	copy(out, m.history)
	return out
}

// LastRequest returns the most recent request
func (m *MockTransport) LastRequest() (RecordedRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return RecordedRequest{}, false
	}
	return m.history[len(m.history)-1], true
}

// RequestCount returns the number of Do calls
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Pending returns the number of queued entries not yet consumed
func (m *MockTransport) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Reset clears the queue and the history
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.history = nil
}
