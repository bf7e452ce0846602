package market

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"marketbrowser/internal/alphavantage"
	"marketbrowser/internal/fallback"
	"marketbrowser/internal/fetcher"
)

func (s *Service) fetchListing(ctx context.Context) (fallback.Listing, error) {
	body, err := s.fetch(ctx, alphavantage.TopGainersLosersRequest())
	if err != nil {
		return fallback.Listing{}, err
	}
	return alphavantage.DecodeMovers(body)
}

// TopMovers returns the live gainers or losers, or the reference listing for
// kind when the provider has nothing. Unknown kinds yield an empty slice.
func (s *Service) TopMovers(ctx context.Context, kind fallback.Kind) []fallback.Mover {
	if kind != fallback.KindGainers && kind != fallback.KindLosers {
		return []fallback.Mover{}
	}

	listing, err := s.fetchListing(ctx)
	movers := listing.TopGainers
	if kind == fallback.KindLosers {
		movers = listing.TopLosers
	}

	if err != nil || len(movers) == 0 {
		s.logger.Info("top movers unavailable, showing reference listing", "kind", kind, "error", err)
		s.metrics.Fallback("movers")
		return s.resolver.Movers(kind)
	}
	return movers
}

// Listing returns both sides of the movers listing, served from cache while fresh.
// force skips the cache read. A listing without gainers is replaced by the
// reference listing and is not cached.
func (s *Service) Listing(ctx context.Context, force bool) fallback.Listing {
	var cached fallback.Listing
	if !force && s.cache.Get(ctx, ListingCacheKey, s.listingTTL, &cached) {
		return cached
	}

	fresh, err := s.fetchListing(ctx)
	if err != nil || len(fresh.TopGainers) == 0 {
		s.logger.Info("listing unavailable, showing reference listing", "error", err)
		s.metrics.Fallback("movers")
		return s.resolver.Listing()
	}

	s.cache.Set(ctx, ListingCacheKey, fresh)
	return fresh
}

func (s *Service) companyOverview(ctx context.Context, symbol string) (fallback.Overview, error) {
	key := overviewKeyPrefix + symbol

	var cached fallback.Overview
	if s.cache.Get(ctx, key, s.overviewTTL, &cached) && len(cached) > 0 {
		return cached, nil
	}

	body, err := s.fetch(ctx, alphavantage.OverviewRequest(symbol))
	if err != nil {
		return nil, err
	}
	overview, err := alphavantage.DecodeOverview(body)
	if err != nil {
		return nil, err
	}
	if len(overview) == 0 {
		return nil, fetcher.NewQuotaError("empty overview")
	}

	s.cache.Set(ctx, key, overview)
	return overview, nil
}

// CompanyOverview returns the provider's overview for symbol, cached for a day.
// Any failure yields an empty overview.
func (s *Service) CompanyOverview(ctx context.Context, symbol string) fallback.Overview {
	symbol = Normalize(symbol)
	overview, err := s.companyOverview(ctx, symbol)
	if err != nil {
		s.logger.Debug("overview unavailable", "symbol", symbol, "error", err)
		return fallback.Overview{}
	}
	return overview
}

func (s *Service) dailyCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = DefaultSeriesLimit
	}
	body, err := s.fetch(ctx, alphavantage.DailySeriesRequest(symbol, limit))
	if err != nil {
		return nil, err
	}
	return alphavantage.DecodeDailyCloses(body, limit)
}

// DailySeries returns the most recent limit daily closes in ascending order as
// 1-based points. Any failure yields an empty series.
func (s *Service) DailySeries(ctx context.Context, symbol string, limit int) []fallback.Point {
	symbol = Normalize(symbol)
	closes, err := s.dailyCloses(ctx, symbol, limit)
	if err != nil {
		s.logger.Debug("daily series unavailable", "symbol", symbol, "error", err)
		return []fallback.Point{}
	}
	return fallback.Indexed(closes)
}

// SearchTickers returns tickers matching query. A blank query returns an empty
// result without sending a request.
func (s *Service) SearchTickers(ctx context.Context, query string) []alphavantage.Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return []alphavantage.Match{}
	}

	body, err := s.fetch(ctx, alphavantage.SymbolSearchRequest(query))
	if err != nil {
		s.logger.Debug("search failed", "query", query, "error", err)
		return []alphavantage.Match{}
	}
	matches, err := alphavantage.DecodeMatches(body)
	if err != nil {
		s.logger.Debug("search failed", "query", query, "error", err)
		return []alphavantage.Match{}
	}
	return matches
}

// Quote returns the latest quote for symbol, falling back to reference data.
func (s *Service) Quote(ctx context.Context, symbol string) fallback.Quote {
	symbol = Normalize(symbol)

	body, err := s.fetch(ctx, alphavantage.GlobalQuoteRequest(symbol))
	var gq alphavantage.GlobalQuote
	if err == nil {
		gq, err = alphavantage.DecodeGlobalQuote(body, symbol)
	}
	if err != nil {
		s.logger.Debug("quote unavailable", "symbol", symbol, "error", err)
		s.metrics.Fallback("quote")
		return s.resolver.ResolveQuote(symbol, nil)
	}

	live := fallback.Quote{
		Symbol:        symbol,
		Price:         fixed(gq.Price),
		Change:        fixed(gq.Change),
		ChangePercent: fixed(strings.TrimSuffix(gq.ChangePercent, "%")),
		Exchange:      ExchangeFor(symbol),
	}
	return s.resolver.ResolveQuote(symbol, &live)
}

// Product resolves the overview and price history shown on a product page.
// A transport failure is reported through the advisory, never as an error.
func (s *Service) Product(ctx context.Context, symbol string) fallback.Resolution {
	symbol = Normalize(symbol)

	overview, ovErr := s.companyOverview(ctx, symbol)
	closes, seriesErr := s.dailyCloses(ctx, symbol, DefaultSeriesLimit)

	var transportErr error
	switch {
	case fetcher.IsTransport(ovErr):
		transportErr = ovErr
	case fetcher.IsTransport(seriesErr):
		transportErr = seriesErr
	}
	if ovErr != nil {
		s.logger.Debug("product overview unavailable", "symbol", symbol, "error", ovErr)
		overview = nil
	}
	if seriesErr != nil {
		s.logger.Debug("product series unavailable", "symbol", symbol, "error", seriesErr)
	}

	res := s.resolver.Resolve(symbol, overview, closes, transportErr)

	if res.OverviewFallback {
		s.metrics.Fallback("overview")
	}
	if res.SeriesFallback {
		s.metrics.Fallback("series")
	}
	return res
}

// WatchlistQuotes builds a quote per symbol from its two latest daily closes.
// Symbols are fetched one after another, each round trip awaited before the
// next, to stay under the provider's rate ceiling.
func (s *Service) WatchlistQuotes(ctx context.Context, symbols []string) map[string]fallback.Quote {
	quotes := make(map[string]fallback.Quote, len(symbols))

	for _, symbol := range symbols {
		symbol = Normalize(symbol)
		if symbol == "" {
			continue
		}

		overview := s.CompanyOverview(ctx, symbol)
		closes, err := s.dailyCloses(ctx, symbol, 2)
		if err != nil || len(closes) < 2 {
			s.logger.Debug("watchlist quote unavailable", "symbol", symbol, "error", err)
			s.metrics.Fallback("quote")
			quotes[symbol] = s.resolver.ResolveQuote(symbol, nil)
			continue
		}

		exchange := overview["Exchange"]
		if exchange == "" {
			exchange = ExchangeFor(symbol)
		}
		q := quoteFromCloses(symbol, closes[len(closes)-2], closes[len(closes)-1], exchange)
		quotes[symbol] = s.resolver.ResolveQuote(symbol, &q)
	}
	return quotes
}

// Indices returns the static market index rows.
func (s *Service) Indices() []fallback.IndexRow {
	return s.resolver.Indices()
}

func quoteFromCloses(symbol string, previous, latest float64, exchange string) fallback.Quote {
	prev := decimal.NewFromFloat(previous)
	last := decimal.NewFromFloat(latest)
	change := last.Sub(prev)

	percent := fallback.Sentinel
	if !prev.IsZero() {
		percent = change.Div(prev).Mul(decimal.NewFromInt(100)).StringFixed(2)
	}

	return fallback.Quote{
		Symbol:        symbol,
		Price:         last.StringFixed(2),
		Change:        change.StringFixed(2),
		ChangePercent: percent,
		Exchange:      exchange,
	}
}

// fixed formats a provider number with two decimals, or returns "" if it is not a number.
func fixed(value string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	return d.StringFixed(2)
}

// PrefetchListing refreshes the cached movers listing and reports why it could not.
func (s *Service) PrefetchListing(ctx context.Context) error {
	listing, err := s.fetchListing(ctx)
	if err != nil {
		return err
	}
	if len(listing.TopGainers) == 0 {
		return fetcher.NewQuotaError("empty listing")
	}
	s.cache.Set(ctx, ListingCacheKey, listing)
	return nil
}

// PrefetchOverview loads the overview for symbol into the cache unless a fresh
// one is already there, and reports why it could not.
func (s *Service) PrefetchOverview(ctx context.Context, symbol string) error {
	_, err := s.companyOverview(ctx, Normalize(symbol))
	return err
}
