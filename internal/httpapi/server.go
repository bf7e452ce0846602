// Package httpapi serves market data and watchlists as JSON over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketbrowser/internal/alphavantage"
	"marketbrowser/internal/fallback"
)

// Market is the data acquisition surface the API serves.
type Market interface {
	TopMovers(ctx context.Context, kind fallback.Kind) []fallback.Mover
	Listing(ctx context.Context, force bool) fallback.Listing
	CompanyOverview(ctx context.Context, symbol string) fallback.Overview
	DailySeries(ctx context.Context, symbol string, limit int) []fallback.Point
	SearchTickers(ctx context.Context, query string) []alphavantage.Match
	Quote(ctx context.Context, symbol string) fallback.Quote
	Product(ctx context.Context, symbol string) fallback.Resolution
	WatchlistQuotes(ctx context.Context, symbols []string) map[string]fallback.Quote
	Indices() []fallback.IndexRow
	Pending() int
}

// Watchlists is the watchlist surface the API serves.
type Watchlists interface {
	Lists() map[string][]string
	AddToWatchlist(ctx context.Context, name, symbol string) error
	RemoveFromWatchlist(ctx context.Context, name, symbol string) error
	RemoveFromWatchlists(ctx context.Context, symbol string) error
	DeleteList(ctx context.Context, name string) error
	IsInAnyWatchlist(symbol string) bool
	Symbols() []string
}

// Server is the JSON API server.
type Server struct {
	router     *mux.Router
	server     *http.Server
	market     Market
	watchlists Watchlists
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer exposes g on /metrics. Without it /metrics is not served.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a Server listening on addr.
func New(addr string, m Market, w Watchlists, opts ...Option) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		market:     m,
		watchlists: w,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	// Market data
	api.HandleFunc("/movers/{kind:gainers|losers}", s.movers).Methods(http.MethodGet)
	api.HandleFunc("/listing", s.listing).Methods(http.MethodGet)
	api.HandleFunc("/overview/{symbol}", s.overview).Methods(http.MethodGet)
	api.HandleFunc("/product/{symbol}", s.product).Methods(http.MethodGet)
	api.HandleFunc("/series/{symbol}", s.series).Methods(http.MethodGet)
	api.HandleFunc("/quote/{symbol}", s.quote).Methods(http.MethodGet)
	api.HandleFunc("/search", s.search).Methods(http.MethodGet)
	api.HandleFunc("/indices", s.indices).Methods(http.MethodGet)

	// Watchlists
	api.HandleFunc("/watchlists", s.listWatchlists).Methods(http.MethodGet)
	api.HandleFunc("/watchlists/quotes", s.watchlistQuotes).Methods(http.MethodGet)
	api.HandleFunc("/watchlists/{name}/symbols", s.addSymbol).Methods(http.MethodPost)
	api.HandleFunc("/watchlists/{name}/symbols/{symbol}", s.removeSymbol).Methods(http.MethodDelete)
	api.HandleFunc("/watchlists/{name}", s.deleteWatchlist).Methods(http.MethodDelete)
	api.HandleFunc("/symbols/{symbol}", s.removeEverywhere).Methods(http.MethodDelete)
	api.HandleFunc("/symbols/{symbol}/watched", s.watched).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is shut down. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLoggingMiddleware logs every request with its status and duration
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
