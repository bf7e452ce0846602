package alphavantage

import (
	"net/http"

	"marketbrowser/internal/queue"
)

// AlphaVantage query functions
const (
	FunctionTopGainersLosers = "TOP_GAINERS_LOSERS"
	FunctionOverview         = "OVERVIEW"
	FunctionDailyAdjusted    = "TIME_SERIES_DAILY_ADJUSTED"
	FunctionGlobalQuote      = "GLOBAL_QUOTE"
	FunctionSymbolSearch     = "SYMBOL_SEARCH"
)

// compactSize is how many daily points the provider returns without outputsize=full.
const compactSize = 100

func request(params map[string]string) queue.Request {
	return queue.Request{Method: http.MethodGet, Params: params}
}

// TopGainersLosersRequest asks for the current top gainers, losers and most active.
func TopGainersLosersRequest() queue.Request {
	return request(map[string]string{"function": FunctionTopGainersLosers})
}

// OverviewRequest asks for a company overview.
func OverviewRequest(symbol string) queue.Request {
	return request(map[string]string{
		"function": FunctionOverview,
		"symbol":   symbol,
	})
}

// DailySeriesRequest asks for the daily adjusted series, requesting the full
// history only when limit exceeds the compact size.
func DailySeriesRequest(symbol string, limit int) queue.Request {
	params := map[string]string{
		"function": FunctionDailyAdjusted,
		"symbol":   symbol,
	}
	if limit > compactSize {
		params["outputsize"] = "full"
	}
	return request(params)
}

// GlobalQuoteRequest asks for the latest quote.
func GlobalQuoteRequest(symbol string) queue.Request {
	return request(map[string]string{
		"function": FunctionGlobalQuote,
		"symbol":   symbol,
	})
}

// SymbolSearchRequest asks for tickers matching keywords.
func SymbolSearchRequest(keywords string) queue.Request {
	return request(map[string]string{
		"function": FunctionSymbolSearch,
		"keywords": keywords,
	})
}
