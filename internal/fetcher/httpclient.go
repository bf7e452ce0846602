package fetcher

import (
	"time"

	"resty.dev/v3"
)

const (
	// DefaultTimeout bounds a single provider round trip. The queue has no
	// timeout of its own, so this is the only limit on a dispatched request.
	DefaultTimeout = 15 * time.Second
)

// NewHTTPClient creates the provider HTTP client.
// Retries are disabled: a failed attempt falls back to reference data
// instead of spending another request from the quota.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)
}
