package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"marketbrowser/internal/fallback"
	"marketbrowser/internal/watchlist"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

// AddSymbolRequest is the body of POST /watchlists/{name}/symbols.
type AddSymbolRequest struct {
	Symbol string `json:"symbol"`
}

// WatchedResponse is the body of GET /symbols/{symbol}/watched.
type WatchedResponse struct {
	Symbol  string `json:"symbol"`
	Watched bool   `json:"watched"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Pending: s.market.Pending()})
}

func (s *Server) movers(w http.ResponseWriter, r *http.Request) {
	kind := fallback.Kind(mux.Vars(r)["kind"])
	s.writeJSON(w, http.StatusOK, s.market.TopMovers(r.Context(), kind))
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "refresh")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "refresh must be a boolean")
		return
	}
	s.writeJSON(w, http.StatusOK, s.market.Listing(r.Context(), force))
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.CompanyOverview(r.Context(), mux.Vars(r)["symbol"]))
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.Product(r.Context(), mux.Vars(r)["symbol"]))
}

func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, s.market.DailySeries(r.Context(), mux.Vars(r)["symbol"], limit))
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.Quote(r.Context(), mux.Vars(r)["symbol"]))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.SearchTickers(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) indices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.Indices())
}

func (s *Server) listWatchlists(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watchlists.Lists())
}

func (s *Server) watchlistQuotes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.WatchlistQuotes(r.Context(), s.watchlists.Symbols()))
}

func (s *Server) addSymbol(w http.ResponseWriter, r *http.Request) {
	var req AddSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.watchlists.AddToWatchlist(r.Context(), mux.Vars(r)["name"], req.Symbol)
	if s.watchlistError(w, err) {
		return
	}
	s.writeJSON(w, http.StatusCreated, s.watchlists.Lists())
}

func (s *Server) removeSymbol(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := s.watchlists.RemoveFromWatchlist(r.Context(), vars["name"], vars["symbol"])
	if s.watchlistError(w, err) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.watchlists.Lists())
}

func (s *Server) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	err := s.watchlists.DeleteList(r.Context(), mux.Vars(r)["name"])
	if s.watchlistError(w, err) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.watchlists.Lists())
}

func (s *Server) removeEverywhere(w http.ResponseWriter, r *http.Request) {
	err := s.watchlists.RemoveFromWatchlists(r.Context(), mux.Vars(r)["symbol"])
	if s.watchlistError(w, err) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.watchlists.Lists())
}

func (s *Server) watched(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	s.writeJSON(w, http.StatusOK, WatchedResponse{
		Symbol:  symbol,
		Watched: s.watchlists.IsInAnyWatchlist(symbol),
	})
}

// watchlistError writes a 400 for invalid watchlist input and reports whether it did.
func (s *Server) watchlistError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, watchlist.ErrInvalidName), errors.Is(err, watchlist.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("watchlist operation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// writeJSON sends v with status. The status is already on the wire when
// encoding fails, so the failure can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "status", status, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
