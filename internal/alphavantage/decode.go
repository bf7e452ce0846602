package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"marketbrowser/internal/fallback"
	"marketbrowser/internal/fetcher"
)

// GlobalQuoteResponse represents the AlphaVantage API response for stock quotes
type GlobalQuoteResponse struct {
	GlobalQuote GlobalQuote `json:"Global Quote"`
}

// GlobalQuote is the body of a GLOBAL_QUOTE response
type GlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// DecodeGlobalQuote parses a GLOBAL_QUOTE body. A quote without a price is a validation error.
func DecodeGlobalQuote(body []byte, symbol string) (GlobalQuote, error) {
	var result GlobalQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return GlobalQuote{}, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	if result.GlobalQuote.Price == "" {
		return GlobalQuote{}, fetcher.NewValidationError(fmt.Sprintf("price not found in response for %s", symbol))
	}

	if _, err := strconv.ParseFloat(result.GlobalQuote.Price, 64); err != nil {
		return GlobalQuote{}, fetcher.NewValidationError(fmt.Sprintf("invalid price %q for %s", result.GlobalQuote.Price, symbol))
	}

	return result.GlobalQuote, nil
}

type rawMover struct {
	Ticker           string `json:"ticker"`
	Symbol           string `json:"symbol"`
	TickerSymbol     string `json:"ticker_symbol"`
	Price            string `json:"price"`
	ChangePercentage string `json:"change_percentage"`
}

func (m rawMover) mover() fallback.Mover {
	ticker := m.Ticker
	if ticker == "" {
		ticker = m.Symbol
	}
	if ticker == "" {
		ticker = m.TickerSymbol
	}
	return fallback.Mover{
		Ticker:           ticker,
		Price:            m.Price,
		ChangePercentage: m.ChangePercentage,
	}
}

// DecodeMovers parses a TOP_GAINERS_LOSERS body into a listing.
// Missing arrays decode as empty slices.
func DecodeMovers(body []byte) (fallback.Listing, error) {
	var raw struct {
		TopGainers []rawMover `json:"top_gainers"`
		TopLosers  []rawMover `json:"top_losers"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fallback.Listing{}, fmt.Errorf("failed to decode top movers: %w", err)
	}

	listing := fallback.Listing{
		TopGainers: make([]fallback.Mover, 0, len(raw.TopGainers)),
		TopLosers:  make([]fallback.Mover, 0, len(raw.TopLosers)),
	}
	for _, m := range raw.TopGainers {
		listing.TopGainers = append(listing.TopGainers, m.mover())
	}
	for _, m := range raw.TopLosers {
		listing.TopLosers = append(listing.TopLosers, m.mover())
	}
	return listing, nil
}

// DecodeOverview parses an OVERVIEW body. Non-string values are formatted,
// nulls are dropped.
func DecodeOverview(body []byte) (fallback.Overview, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode overview: %w", err)
	}

	overview := make(fallback.Overview, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			overview[k] = val
		default:
			overview[k] = fmt.Sprint(val)
		}
	}
	return overview, nil
}

// DecodeDailyCloses parses a daily series body and returns the closes of the
// most recent limit days in ascending date order.
func DecodeDailyCloses(body []byte, limit int) ([]float64, error) {
	var raw struct {
		TimeSeries map[string]struct {
			Close string `json:"4. close"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode daily series: %w", err)
	}
	if len(raw.TimeSeries) == 0 {
		return nil, fetcher.NewValidationError("daily series missing from response")
	}

	dates := make([]string, 0, len(raw.TimeSeries))
	for date := range raw.TimeSeries {
		dates = append(dates, date)
	}
	// ISO dates sort lexically; newest first
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}

	closes := make([]float64, len(dates))
	for i, date := range dates {
		v, err := strconv.ParseFloat(raw.TimeSeries[date].Close, 64)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid close %q on %s", raw.TimeSeries[date].Close, date))
		}
		closes[len(dates)-1-i] = v
	}
	return closes, nil
}

// Match is one SYMBOL_SEARCH result.
type Match struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// DecodeMatches parses a SYMBOL_SEARCH body.
func DecodeMatches(body []byte) ([]Match, error) {
	var raw struct {
		BestMatches []struct {
			Symbol   string `json:"1. symbol"`
			Name     string `json:"2. name"`
			Region   string `json:"4. region"`
			Currency string `json:"8. currency"`
		} `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	matches := make([]Match, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		matches = append(matches, Match{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}
	return matches, nil
}
