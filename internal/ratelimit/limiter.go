package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIAlphaVantage represents the AlphaVantage API
	APIAlphaVantage API = "alphavantage"
)

// Budget caps how many requests each API may receive.
// It sits beneath the request queue: the queue spaces dispatches, the budget
// makes sure a misconfigured spacing still cannot exceed the published quota.
type Budget struct {
	limiters map[API]*rate.Limiter
}

// New creates a Budget with the given per-API limits and a burst of one.
func New(limits map[API]rate.Limit) *Budget {
	b := &Budget{limiters: make(map[API]*rate.Limiter, len(limits))}
	for api, limit := range limits {
		b.limiters[api] = rate.NewLimiter(limit, 1)
	}
	return b
}

// ForQuota returns a Budget allowing perMinute AlphaVantage requests per minute.
// AlphaVantage free tier: 5 requests per minute = 1 request every 12 seconds.
func ForQuota(perMinute int) *Budget {
	if perMinute <= 0 {
		return Unlimited()
	}
	return New(map[API]rate.Limit{
		APIAlphaVantage: rate.Every(time.Minute / time.Duration(perMinute)),
	})
}

// Unlimited returns a Budget that never blocks. Used by tests.
func Unlimited() *Budget {
	return New(map[API]rate.Limit{
		APIAlphaVantage: rate.Inf,
	})
}

// Wait blocks until the budget permits a request to the given API.
// It returns an error if the context is canceled before the request can proceed.
func (b *Budget) Wait(ctx context.Context, api API) error {
	limiter, exists := b.limiters[api]

	if !exists {
		// No limiter configured for this API
		return nil
	}

	return limiter.Wait(ctx)
}
