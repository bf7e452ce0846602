package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"resty.dev/v3"

	"marketbrowser/internal/fetcher"
	"marketbrowser/internal/queue"
	"marketbrowser/internal/ratelimit"
)

const (
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 60 * time.Second
)

// Transport sends queued requests to AlphaVantage. It implements queue.Dispatcher.
type Transport struct {
	apiKey  string
	client  *resty.Client
	budget  *ratelimit.Budget
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	timeout         time.Duration
	breakerFailures uint32
	breakerCooldown time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithBudget sets the request budget. The default is the free-tier quota.
func WithBudget(b *ratelimit.Budget) Option {
	return func(t *Transport) {
		if b != nil {
			t.budget = b
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTimeout bounds each HTTP round trip.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how long it stays open.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(t *Transport) {
		if failures > 0 {
			t.breakerFailures = failures
		}
		if cooldown > 0 {
			t.breakerCooldown = cooldown
		}
	}
}

// NewTransport creates a Transport for the AlphaVantage query endpoint at baseURL.
func NewTransport(apiKey, baseURL string, opts ...Option) *Transport {
	t := &Transport{
		apiKey:          apiKey,
		budget:          ratelimit.ForQuota(5),
		logger:          slog.Default(),
		timeout:         fetcher.DefaultTimeout,
		breakerFailures: defaultBreakerFailures,
		breakerCooldown: defaultBreakerCooldown,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.client = fetcher.NewHTTPClient(baseURL, t.timeout)
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alphavantage",
		Timeout: t.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= t.breakerFailures
		},
		IsSuccessful: func(err error) bool {
			// a bad symbol or a rejected key says nothing about provider health
			return err == nil || !fetcher.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("provider circuit changed state",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return t
}

// Close releases idle connections.
func (t *Transport) Close() error {
	return t.client.Close()
}

// Dispatch implements queue.Dispatcher
func (t *Transport) Dispatch(ctx context.Context, req queue.Request) (*queue.Response, error) {
	if err := t.budget.Wait(ctx, ratelimit.APIAlphaVantage); err != nil {
		return nil, fetcher.NewTimeoutError(err)
	}

	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.send(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fetcher.NewCircuitOpenError(err)
		}
		return nil, err
	}
	return out.(*queue.Response), nil
}

func (t *Transport) send(ctx context.Context, req queue.Request) (*queue.Response, error) {
	params := make(map[string]string, len(req.Params)+1)
	for k, v := range req.Params {
		params[k] = v
	}
	params["apikey"] = t.apiKey

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Execute(method, req.Path)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fetcher.NewTimeoutError(err)
		}
		return nil, fetcher.NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	body := resp.Bytes()
	if err := checkNotice(body); err != nil {
		t.logger.Debug("provider returned no data",
			"function", req.Function(),
			"error", err)
		return nil, err
	}

	return &queue.Response{StatusCode: resp.StatusCode(), Body: body}, nil
}

// notice holds the fields AlphaVantage uses instead of data.
type notice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// checkNotice turns quota notices, error messages and empty objects into errors.
// Bodies that are not JSON objects are left to the decoders.
func checkNotice(body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	if len(fields) == 0 {
		return fetcher.NewQuotaError("empty response")
	}

	var n notice
	if err := json.Unmarshal(body, &n); err != nil {
		return nil
	}
	switch {
	case n.ErrorMessage != "":
		return fetcher.NewValidationError(n.ErrorMessage)
	case n.Note != "":
		return fetcher.NewQuotaError(n.Note)
	case n.Information != "":
		return fetcher.NewQuotaError(n.Information)
	}
	return nil
}
