// Package market is the data acquisition layer consumed by screens.
//
// Every operation goes through the service's own request queue, consults the
// response cache where it makes sense, and never returns an error: failures
// become empty shapes or reference data from the fallback resolver.
package market

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"marketbrowser/internal/cache"
	"marketbrowser/internal/fallback"
	"marketbrowser/internal/metrics"
	"marketbrowser/internal/queue"
)

const (
	// DefaultRequestInterval keeps sustained traffic under 5 requests per minute.
	DefaultRequestInterval = 13 * time.Second
	// DefaultSeriesLimit is the number of daily closes charted on a product page.
	DefaultSeriesLimit = 120

	// ListingCacheKey holds the combined gainers/losers listing.
	ListingCacheKey   = "TOP_GL_CACHE"
	overviewKeyPrefix = "OVERVIEW_"
)

// Service composes the request queue, response cache and fallback resolver.
type Service struct {
	queue    *queue.Queue
	cache    *cache.Cache
	resolver *fallback.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics

	interval    time.Duration
	overviewTTL time.Duration
	listingTTL  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger; the queue logs through it too.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics reports fallbacks and queue activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithResolver replaces the default reference data resolver.
func WithResolver(r *fallback.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithRequestInterval sets the pause between two provider requests.
func WithRequestInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithTTLs sets how long overviews and the movers listing stay fresh.
func WithTTLs(overview, listing time.Duration) Option {
	return func(s *Service) {
		if overview > 0 {
			s.overviewTTL = overview
		}
		if listing > 0 {
			s.listingTTL = listing
		}
	}
}

// New creates a Service that sends provider requests through d.
// The service owns its queue; call Close to stop it.
func New(d queue.Dispatcher, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		cache:       c,
		resolver:    fallback.NewResolver(nil),
		logger:      slog.Default(),
		interval:    DefaultRequestInterval,
		overviewTTL: cache.TTLOverview,
		listingTTL:  cache.TTLListing,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.queue = queue.New(d, s.interval,
		queue.WithLogger(s.logger),
		queue.WithMetrics(s.metrics))
	return s
}

// Close stops the request queue. Requests still waiting resolve to fallbacks.
func (s *Service) Close() {
	s.queue.Close()
}

// Pending returns the number of provider requests waiting in the queue.
func (s *Service) Pending() int {
	return s.queue.Len()
}

// Resolver returns the reference data resolver used by the service.
func (s *Service) Resolver() *fallback.Resolver {
	return s.resolver
}

// Normalize trims and upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ExchangeFor guesses the exchange from a ".XXX" suffix, defaulting to NSE.
func ExchangeFor(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i >= 0 && i < len(symbol)-1 {
		return symbol[i+1:]
	}
	return fallback.DefaultExchange
}

func (s *Service) fetch(ctx context.Context, req queue.Request) ([]byte, error) {
	resp, err := s.queue.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
