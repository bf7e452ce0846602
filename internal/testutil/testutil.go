package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"marketbrowser/internal/kvstore"
)

// ErrStorage is returned by FailingStore.
var ErrStorage = errors.New("storage unavailable")

// FailingStore is a kvstore.Store whose every operation fails.
type FailingStore struct{}

// Get implements kvstore.Store
func (FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrStorage
}

// Set implements kvstore.Store
func (FailingStore) Set(ctx context.Context, key string, value []byte) error {
	return ErrStorage
}

// Remove implements kvstore.Store
func (FailingStore) Remove(ctx context.Context, key string) error {
	return ErrStorage
}

var _ kvstore.Store = FailingStore{}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Provider is a fake AlphaVantage server. Bodies are keyed by the "function"
// query parameter; Calls counts requests per function.
type Provider struct {
	Server *httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	calls  map[string]int
}

// NewProvider starts a fake provider that is closed when the test ends.
func NewProvider(t *testing.T) *Provider {
	t.Helper()
	p := &Provider{
		bodies: make(map[string]string),
		status: make(map[string]int),
		calls:  make(map[string]int),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

// Respond sets the JSON body returned for a provider function.
func (p *Provider) Respond(function, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies[function] = body
	delete(p.status, function)
}

// Fail makes a provider function answer with the given HTTP status.
func (p *Provider) Fail(function string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[function] = status
}

// Calls returns how many requests a provider function received.
func (p *Provider) Calls(function string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[function]
}

// TotalCalls returns the number of requests received for all functions.
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	function := r.URL.Query().Get("function")

	p.mu.Lock()
	p.calls[function]++
	status, failing := p.status[function]
	body, ok := p.bodies[function]
	p.mu.Unlock()

	if failing {
		w.WriteHeader(status)
		return
	}
	if !ok {
		body = `{}`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
