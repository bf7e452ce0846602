package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketbrowser/internal/fetcher"
	"marketbrowser/internal/queue"
	"marketbrowser/internal/ratelimit"
)

func newTestTransport(url string, opts ...Option) *Transport {
	opts = append([]Option{WithBudget(ratelimit.Unlimited())}, opts...)
	return NewTransport("test_key", url, opts...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestTransport_Dispatch_Success(t *testing.T) {
	apiKey := "test_api_key_123"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != apiKey {
			t.Errorf("apikey = %q, want %q", got, apiKey)
		}
		if got := r.URL.Query().Get("function"); got != FunctionGlobalQuote {
			t.Errorf("function = %q, want %q", got, FunctionGlobalQuote)
		}
		if got := r.URL.Query().Get("symbol"); got != "GOOGL" {
			t.Errorf("symbol = %q, want GOOGL", got)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Global Quote": {"01. symbol": "GOOGL", "05. price": "142.56"}}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	transport := NewTransport(apiKey, server.URL, WithBudget(ratelimit.Unlimited()))
	resp, err := transport.Dispatch(context.Background(), GlobalQuoteRequest("GOOGL"))
	if err != nil {
		t.Fatalf("Dispatch() returned unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	quote, err := DecodeGlobalQuote(resp.Body, "GOOGL")
	if err != nil {
		t.Fatalf("DecodeGlobalQuote() returned unexpected error: %v", err)
	}
	if quote.Price != "142.56" {
		t.Errorf("Price = %q, want %q", quote.Price, "142.56")
	}
}

func TestTransport_Dispatch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType fetcher.ErrorType
	}{
		{"server error", http.StatusInternalServerError, ``, fetcher.ErrorTypeServer},
		{"rate limited", http.StatusTooManyRequests, ``, fetcher.ErrorTypeRateLimit},
		{"not found", http.StatusNotFound, ``, fetcher.ErrorTypeClient},
		{"empty object", http.StatusOK, `{}`, fetcher.ErrorTypeQuota},
		{
			"quota note", http.StatusOK,
			`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
			fetcher.ErrorTypeQuota,
		},
		{
			"information", http.StatusOK,
			`{"Information": "The **demo** API key is for demo purposes only."}`,
			fetcher.ErrorTypeQuota,
		},
		{
			"error message", http.StatusOK,
			`{"Error Message": "Invalid API call."}`,
			fetcher.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(jsonHandler(tt.status, tt.body))
			defer server.Close()

			transport := newTestTransport(server.URL)
			_, err := transport.Dispatch(context.Background(), OverviewRequest("AAPL"))
			if err == nil {
				t.Fatal("Dispatch() expected error, got nil")
			}
			if got := fetcher.TypeOf(err); got != tt.wantType {
				t.Errorf("error type = %q, want %q (err: %v)", got, tt.wantType, err)
			}
		})
	}
}

func TestTransport_Dispatch_NonObjectBodyPassesThrough(t *testing.T) {
	server := httptest.NewServer(jsonHandler(http.StatusOK, `[1,2,3]`))
	defer server.Close()

	resp, err := newTestTransport(server.URL).Dispatch(context.Background(), OverviewRequest("AAPL"))
	if err != nil {
		t.Fatalf("Dispatch() returned unexpected error: %v", err)
	}
	if string(resp.Body) != `[1,2,3]` {
		t.Errorf("Body = %q, want %q", resp.Body, `[1,2,3]`)
	}
}

func TestTransport_Dispatch_ContextCancellation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestTransport(server.URL).Dispatch(ctx, OverviewRequest("AAPL"))
	if err == nil {
		t.Error("Dispatch() expected error for cancelled context, got nil")
	}
}

func TestTransport_Dispatch_Timeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	transport := newTestTransport(server.URL, WithTimeout(50*time.Millisecond))
	_, err := transport.Dispatch(context.Background(), OverviewRequest("AAPL"))
	if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeTimeout {
		t.Errorf("error type = %q, want %q (err: %v)", got, fetcher.ErrorTypeTimeout, err)
	}
}

func TestTransport_Breaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	transport := newTestTransport(server.URL, WithBreaker(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := transport.Dispatch(ctx, OverviewRequest("AAPL")); fetcher.TypeOf(err) != fetcher.ErrorTypeServer {
			t.Fatalf("attempt %d: error type = %q, want %q", i, fetcher.TypeOf(err), fetcher.ErrorTypeServer)
		}
	}

	_, err := transport.Dispatch(ctx, OverviewRequest("AAPL"))
	if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeCircuitOpen {
		t.Errorf("error type = %q, want %q", got, fetcher.ErrorTypeCircuitOpen)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestTransport_Breaker_IgnoresValidationErrors(t *testing.T) {
	server := httptest.NewServer(jsonHandler(http.StatusOK, `{"Error Message": "Invalid API call."}`))
	defer server.Close()

	transport := newTestTransport(server.URL, WithBreaker(1, time.Minute))
	for i := 0; i < 3; i++ {
		_, err := transport.Dispatch(context.Background(), OverviewRequest("NOPE"))
		if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeValidation {
			t.Fatalf("attempt %d: error type = %q, want %q", i, got, fetcher.ErrorTypeValidation)
		}
	}
}

func TestTransport_Breaker_IgnoresClientErrors(t *testing.T) {
	var hits int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	transport := newTestTransport(server.URL, WithBreaker(1, time.Minute))
	for i := 0; i < 3; i++ {
		_, err := transport.Dispatch(context.Background(), OverviewRequest("AAPL"))
		if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeClient {
			t.Fatalf("attempt %d: error type = %q, want %q", i, got, fetcher.ErrorTypeClient)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

func TestTransport_ThroughQueue(t *testing.T) {
	server := httptest.NewServer(jsonHandler(http.StatusOK, `{"bestMatches": [{"1. symbol": "TCS.BSE", "2. name": "Tata Consultancy"}]}`))
	defer server.Close()

	q := queue.New(newTestTransport(server.URL), 0)
	defer q.Close()

	resp, err := q.Do(context.Background(), SymbolSearchRequest("tata"))
	if err != nil {
		t.Fatalf("Do() returned unexpected error: %v", err)
	}

	matches, err := DecodeMatches(resp.Body)
	if err != nil {
		t.Fatalf("DecodeMatches() returned unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Symbol != "TCS.BSE" {
		t.Errorf("matches = %+v, want one TCS.BSE match", matches)
	}
}
