// Package watchlist keeps named lists of ticker symbols in durable storage.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"marketbrowser/internal/kvstore"
)

// StorageKey is the key the whole name-to-symbols mapping is stored under.
const StorageKey = "WATCHLISTS_V1"

var (
	ErrInvalidName   = errors.New("watchlist name must not be blank")
	ErrInvalidSymbol = errors.New("symbol must not be blank")
)

// Store holds the watchlists in memory and writes the full mapping back after
// every mutation. Persistence faults are logged, never returned.
type Store struct {
	store  kvstore.Store
	logger *slog.Logger

	mu     sync.Mutex
	lists  map[string][]string
	loaded bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store over store. Nothing is read until Load or the first mutation.
func New(store kvstore.Store, opts ...Option) *Store {
	s := &Store{
		store:  store,
		logger: slog.Default(),
		lists:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory lists with what storage holds and returns a copy.
// Missing or unreadable data loads as no lists.
func (s *Store) Load(ctx context.Context) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(ctx)
	return s.snapshot()
}

func (s *Store) load(ctx context.Context) {
	s.lists = make(map[string][]string)
	s.loaded = true

	raw, err := s.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("watchlists read failed", "error", err)
		}
		return
	}

	var lists map[string][]string
	if err := json.Unmarshal(raw, &lists); err != nil {
		s.logger.Warn("discarding unreadable watchlists", "error", err)
		return
	}
	for name, symbols := range lists {
		if symbols == nil {
			symbols = []string{}
		}
		s.lists[name] = symbols
	}
}

func (s *Store) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.load(ctx)
	}
}

func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.lists)
	if err != nil {
		s.logger.Warn("watchlists not serializable", "error", err)
		return
	}
	if err := s.store.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Warn("watchlists write failed", "error", err)
	}
}

func (s *Store) snapshot() map[string][]string {
	out := make(map[string][]string, len(s.lists))
	for name, symbols := range s.lists {
		out[name] = slices.Clone(symbols)
		if out[name] == nil {
			out[name] = []string{}
		}
	}
	return out
}

// Lists returns a copy of the lists currently held in memory.
func (s *Store) Lists() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// AddToWatchlist appends symbol to the named list, creating the list if needed.
// Adding a symbol already present changes nothing.
func (s *Store) AddToWatchlist(ctx context.Context, name, symbol string) error {
	name, symbol, err := normalize(name, symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	symbols, ok := s.lists[name]
	if ok && slices.Contains(symbols, symbol) {
		return nil
	}
	s.lists[name] = append(symbols, symbol)
	s.persist(ctx)
	return nil
}

// RemoveFromWatchlist removes symbol from the named list. The list is kept even
// when it becomes empty; an unknown list is left alone.
func (s *Store) RemoveFromWatchlist(ctx context.Context, name, symbol string) error {
	name, symbol, err := normalize(name, symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	symbols, ok := s.lists[name]
	if !ok {
		return nil
	}
	s.lists[name] = without(symbols, symbol)
	s.persist(ctx)
	return nil
}

// RemoveFromWatchlists removes symbol from every list.
func (s *Store) RemoveFromWatchlists(ctx context.Context, symbol string) error {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return ErrInvalidSymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for name, symbols := range s.lists {
		s.lists[name] = without(symbols, symbol)
	}
	s.persist(ctx)
	return nil
}

// DeleteList drops the named list. Deleting an unknown list leaves the lists
// unchanged, and the mapping is saved either way.
func (s *Store) DeleteList(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	delete(s.lists, name)
	s.persist(ctx)
	return nil
}

// IsInAnyWatchlist reports whether any list holds symbol.
func (s *Store) IsInAnyWatchlist(symbol string) bool {
	symbol = normalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, symbols := range s.lists {
		if slices.Contains(symbols, symbol) {
			return true
		}
	}
	return false
}

// Symbols returns every symbol held by any list, once, in sorted order.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	out := []string{}
	for _, symbols := range s.lists {
		for _, sym := range symbols {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(name, symbol string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrInvalidName
	}
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return "", "", ErrInvalidSymbol
	}
	return name, symbol, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func without(symbols []string, symbol string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s != symbol {
			out = append(out, s)
		}
	}
	return out
}
