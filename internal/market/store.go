package market

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher retrieves the ranked listing from the market data API.
type Fetcher interface {
	Markets(ctx context.Context, cur Currency, limit int) ([]Asset, error)
}

// Membership answers favorite membership for the favorites-only view.
type Membership interface {
	Contains(id string) bool
}

// StoreOptions parameterise the listing store.
type StoreOptions struct {
	Limit int
	Sort  SortKey
}

// Store holds the current top-N snapshot and derives sorted, filtered views.
type Store struct {
	fetcher   Fetcher
	favorites Membership
	limit     int
	logger    zerolog.Logger

	issued atomic.Uint64

	mu      sync.RWMutex
	snap    snapshot
	applied uint64
	sortKey SortKey
}

type snapshot struct {
	assets    []Asset
	currency  Currency
	fetchedAt time.Time
	index     map[string]int
}

// NewStore constructs the listing store.
func NewStore(fetcher Fetcher, favorites Membership, opts StoreOptions, logger zerolog.Logger) *Store {
	limit := opts.Limit
	if limit <= 0 || limit > DefaultListingSize {
		limit = DefaultListingSize
	}
	key := opts.Sort
	if key == "" {
		key = SortMarketCapDesc
	}
	return &Store{
		fetcher:   fetcher,
		favorites: favorites,
		limit:     limit,
		sortKey:   key,
		logger:    logger.With().Str("component", "market_store").Logger(),
	}
}

// View is an applied listing: its assets in the active order and the
// currency they are quoted in.
type View struct {
	Assets    []Asset
	Currency  Currency
	FetchedAt time.Time
}

// Request is a reserved reload slot for one currency. Responses are applied
// in request order, so a response for an older request never replaces the
// snapshot of a newer one.
type Request struct {
	token    uint64
	currency Currency
}

// Currency is the quote currency the request fetches.
func (r Request) Currency() Currency { return r.currency }

// NewRequest reserves the next reload slot for cur.
func (s *Store) NewRequest(cur Currency) Request {
	return Request{token: s.issued.Add(1), currency: cur}
}

// Reload fetches the listing for cur and swaps it in.
func (s *Store) Reload(ctx context.Context, cur Currency) (View, error) {
	return s.Fetch(ctx, s.NewRequest(cur))
}

// Fetch runs req and swaps its response in unless a newer request has been
// applied already. It returns the snapshot in place afterwards; on failure
// the previous snapshot stays and an error is returned.
func (s *Store) Fetch(ctx context.Context, req Request) (View, error) {
	cur := req.currency
	assets, err := s.fetcher.Markets(ctx, cur, s.limit)
	if err != nil {
		s.logger.Warn().Err(err).Str("currency", cur.String()).Msg("reload failed; keeping previous snapshot")
		return View{}, fmt.Errorf("reload listing: %w", err)
	}
	if len(assets) > s.limit {
		assets = assets[:s.limit]
	}

	next := snapshot{
		assets:    assets,
		currency:  cur,
		fetchedAt: time.Now().UTC(),
		index:     make(map[string]int, len(assets)),
	}
	for i, a := range assets {
		next.index[a.ID] = i
	}

	s.mu.Lock()
	if req.token > s.applied {
		s.snap = next
		s.applied = req.token
		s.logger.Debug().Int("assets", len(assets)).Str("currency", cur.String()).Msg("listing reloaded")
	} else {
		s.logger.Debug().Uint64("token", req.token).Uint64("applied", s.applied).Msg("discarding superseded listing response")
	}
	s.mu.Unlock()

	return s.Current(false), nil
}

// SetSort changes the ordering applied to every subsequent view.
func (s *Store) SetSort(key SortKey) {
	s.mu.Lock()
	s.sortKey = key
	s.mu.Unlock()
}

// Sort returns the active sort key.
func (s *Store) Sort() SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey
}

// Current returns the snapshot sorted by the active key, optionally
// restricted to favorites, together with its quote currency.
func (s *Store) Current(favoritesOnly bool) View {
	s.mu.RLock()
	snap := s.snap
	key := s.sortKey
	s.mu.RUnlock()

	sorted := SortAssets(snap.assets, key)
	out := make([]Asset, 0, len(sorted))
	for _, a := range sorted {
		if favoritesOnly && (s.favorites == nil || !s.favorites.Contains(a.ID)) {
			continue
		}
		out = append(out, a)
	}
	return View{Assets: out, Currency: snap.currency, FetchedAt: snap.fetchedAt}
}

// CurrentView returns the assets of Current.
func (s *Store) CurrentView(favoritesOnly bool) []Asset {
	return s.Current(favoritesOnly).Assets
}

// Lookup finds an asset of the current snapshot by id.
func (s *Store) Lookup(id string) (Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.snap.index[id]
	if !ok {
		return Asset{}, false
	}
	return s.snap.assets[i], true
}

// Currency is the quote currency of the current snapshot.
func (s *Store) Currency() Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.currency
}

// FetchedAt reports when the current snapshot was fetched; zero if never.
func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.fetchedAt
}

// Len is the number of assets in the current snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.assets)
}
