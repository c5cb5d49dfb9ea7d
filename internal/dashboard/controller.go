package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coindash/internal/market"
	"coindash/internal/scheduler"
)

// Listing is the top-N snapshot the home screen reads. Reload slots are
// reserved with NewRequest and fetched in any order.
type Listing interface {
	NewRequest(cur market.Currency) market.Request
	Fetch(ctx context.Context, req market.Request) (market.View, error)
	SetSort(key market.SortKey)
	Sort() market.SortKey
	Current(favoritesOnly bool) market.View
}

// Favorites is the persisted favorite set.
type Favorites interface {
	Contains(id string) bool
	Toggle(ctx context.Context, id string) (bool, error)
}

// Searcher resolves free-text coin searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]market.SearchHit, error)
}

// DetailLoader fetches the detail screen data.
type DetailLoader interface {
	LoadDetail(ctx context.Context, id string, cur market.Currency) (market.Detail, error)
	LoadPriceHistory(ctx context.Context, id string, cur market.Currency, days int) ([]market.PricePoint, error)
}

// Watcher is told about the favorites after every successful reload.
type Watcher interface {
	Check(ctx context.Context, assets []market.Asset, cur market.Currency) (int, error)
}

// Deps are the collaborators of a Controller. Alerts may be nil.
type Deps struct {
	Listing   Listing
	Favorites Favorites
	Search    Searcher
	Details   DetailLoader
	Alerts    Watcher
}

// Options hold the initial UI state.
type Options struct {
	Currency       market.Currency
	Currencies     []market.Currency
	RefreshSeconds int
	RefreshOptions []int
	AlignRefresh   bool
	HistoryDays    int
}

// Controller owns the active screen and mediates every user action against
// the listing, the favorites and the detail loader. It is safe for
// concurrent use; network calls never run under its lock.
type Controller struct {
	listing   Listing
	favorites Favorites
	searcher  Searcher
	loader    DetailLoader
	alerts    Watcher
	opts      Options
	refresher *scheduler.AutoRefresh
	logger    zerolog.Logger

	base  context.Context
	stop  context.CancelFunc
	loads sync.WaitGroup

	mu             sync.Mutex
	closed         bool
	screen         Screen
	currency       market.Currency
	favoritesOnly  bool
	refreshSeconds int
	home           homeState
	search         searchState
	detail         detailState
}

type homeState struct {
	token  uint64
	status string
}

type searchState struct {
	token    uint64
	query    string
	status   string
	results  []market.Asset
	currency market.Currency
}

type detailState struct {
	token           uint64
	id              string
	status          string
	detail          *market.Detail
	detailPending   bool
	history         []market.PricePoint
	historyCurrency market.Currency
	historyPending  bool
	historyFailed   bool
	settled         chan struct{}
}

// New constructs a Controller on the home screen.
func New(deps Deps, opts Options, logger zerolog.Logger) *Controller {
	if len(opts.Currencies) == 0 {
		opts.Currencies = []market.Currency{"usd", "eur", "pkr", "gbp", "inr"}
	}
	opts.Currency = market.NormalizeCurrency(opts.Currency.String())
	if opts.Currency == "" {
		opts.Currency = opts.Currencies[0]
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = market.DefaultHistoryDays
	}

	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		listing:   deps.Listing,
		favorites: deps.Favorites,
		searcher:  deps.Search,
		loader:    deps.Details,
		alerts:    deps.Alerts,
		opts:      opts,
		logger:    logger.With().Str("component", "dashboard").Logger(),
		base:      base,
		stop:      stop,
		screen:    ScreenHome,
		currency:  opts.Currency,
	}
	c.refresher = scheduler.NewAutoRefresh(c.refreshTick, scheduler.AutoRefreshOptions{AlignToStart: opts.AlignRefresh}, logger)
	return c
}

// Start performs the initial listing load and arms auto-refresh at the
// configured interval. A failed load is reported through the home status.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := c.ReloadListing(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("initial listing load failed")
	}
	if c.opts.RefreshSeconds > 0 {
		if err := c.SetRefreshInterval(c.opts.RefreshSeconds); err != nil {
			return err
		}
	}
	return nil
}

// Close stops auto-refresh and cancels in-flight detail loads.
func (c *Controller) Close() {
	c.refresher.Close()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.refreshSeconds = 0
	c.mu.Unlock()

	c.stop()
	c.loads.Wait()
}

// Screen is the active screen.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Currency is the active quote currency.
func (c *Controller) Currency() market.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currency
}

// Navigate switches to screen. Entering search always clears it; home and
// detail keep their content. Leaving detail discards its pending loads.
func (c *Controller) Navigate(screen Screen) error {
	if _, err := ParseScreen(string(screen)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch screen {
	case ScreenHome:
		c.leaveDetailLocked(screen)
		c.screen = ScreenHome
	case ScreenSearch:
		c.leaveDetailLocked(screen)
		c.screen = ScreenSearch
		c.search = searchState{token: c.search.token + 1}
	case ScreenDetail:
		if c.detail.id == "" {
			return ErrNoSelection
		}
		if c.screen == ScreenDetail {
			return nil
		}
		c.screen = ScreenDetail
		if c.detail.detailPending || c.detail.historyPending {
			// loads were abandoned when the screen was left
			c.resumeDetailLocked(c.detail.detailPending, c.detail.historyPending)
		}
	}
	return nil
}

func (c *Controller) leaveDetailLocked(next Screen) {
	if c.screen == ScreenDetail && next != ScreenDetail {
		c.detail.token++
	}
}

// ToggleFavoritesFilter flips the favorites-only flag of the home grid.
func (c *Controller) ToggleFavoritesFilter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.favoritesOnly = !c.favoritesOnly
	return c.favoritesOnly
}

// ToggleFavorite flips membership of id and persists the set. On failure the
// set is unchanged and the active screen shows a status line.
func (c *Controller) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrNoSelection
	}
	added, err := c.favorites.Toggle(ctx, id)
	if err != nil {
		c.logger.Error().Err(err).Str("id", id).Msg("toggle favorite failed")
		c.mu.Lock()
		c.setStatusLocked(c.screen, StatusFavoritesFailed)
		c.mu.Unlock()
		return false, fmt.Errorf("toggle favorite %s: %w", id, err)
	}
	c.logger.Debug().Str("id", id).Bool("favorite", added).Msg("favorite toggled")
	return added, nil
}

// SetSort changes the ordering of the home grid.
func (c *Controller) SetSort(key market.SortKey) {
	c.listing.SetSort(key)
}

// SetCurrency switches the quote currency and re-fetches the listing. An
// open detail screen re-fetches its currency-bound price history.
func (c *Controller) SetCurrency(ctx context.Context, cur market.Currency) error {
	cur = market.NormalizeCurrency(cur.String())
	if !slices.Contains(c.opts.Currencies, cur) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, cur)
	}

	c.mu.Lock()
	changed := c.currency != cur
	c.currency = cur
	if changed && c.screen == ScreenDetail && c.detail.id != "" {
		c.resumeDetailLocked(c.detail.detailPending, true)
	}
	c.mu.Unlock()

	return c.ReloadListing(ctx)
}

// SetRefreshInterval replaces the auto-refresh cadence; 0 disables it.
func (c *Controller) SetRefreshInterval(seconds int) error {
	if seconds < 0 || (len(c.opts.RefreshOptions) > 0 && !slices.Contains(c.opts.RefreshOptions, seconds)) {
		return fmt.Errorf("%w: %d", ErrUnsupportedInterval, seconds)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.refreshSeconds = seconds
	c.mu.Unlock()

	// outside c.mu: replacing the loop waits for a running tick to finish
	c.refresher.SetInterval(time.Duration(seconds) * time.Second)
	return nil
}

// RefreshLoops reports how many auto-refresh loops are alive.
func (c *Controller) RefreshLoops() int {
	return c.refresher.Running()
}

// ReloadListing re-fetches the top-N listing for the active currency. The
// screen never changes; only the newest reload writes the home status. The
// store slot is reserved under the same lock as the home token, so the order
// of responses never decides which currency wins.
func (c *Controller) ReloadListing(ctx context.Context) error {
	c.mu.Lock()
	c.home.token++
	token := c.home.token
	req := c.listing.NewRequest(c.currency)
	c.home.status = StatusLoading
	c.mu.Unlock()

	listing, err := c.listing.Fetch(ctx, req)

	c.mu.Lock()
	if token == c.home.token {
		if err != nil {
			c.home.status = StatusListingError
		} else {
			c.home.status = showingStatus(len(listing.Assets))
		}
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}

	if c.alerts != nil {
		favs := c.listing.Current(true)
		if _, aerr := c.alerts.Check(ctx, favs.Assets, favs.Currency); aerr != nil {
			c.logger.Warn().Err(aerr).Msg("favorite alerts incomplete")
		}
	}
	return nil
}

func (c *Controller) refreshTick(ctx context.Context, _ time.Time) error {
	return c.ReloadListing(ctx)
}

// SubmitSearch runs a search from the search screen. Blank queries are
// ignored. Results are backfilled with prices from the listing snapshot.
func (c *Controller) SubmitSearch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if c.screen != ScreenSearch {
		c.mu.Unlock()
		return ErrInactiveScreen
	}
	if query == "" {
		c.mu.Unlock()
		return nil
	}
	c.search = searchState{token: c.search.token + 1, query: query, status: StatusSearching}
	token := c.search.token
	c.mu.Unlock()

	hits, err := c.searcher.Search(ctx, query)
	var (
		results []market.Asset
		cur     market.Currency
	)
	if err == nil {
		results, cur = c.backfill(hits)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != ScreenSearch || c.search.token != token {
		c.logger.Debug().Str("query", query).Msg("discarding stale search results")
		return nil
	}
	switch {
	case err != nil:
		c.search.status = StatusSearchError
		c.logger.Warn().Err(err).Str("query", query).Msg("search failed")
		return fmt.Errorf("search %q: %w", query, err)
	case len(results) == 0:
		c.search.status = StatusNoResults
	default:
		c.search.status = foundStatus(len(results))
		c.search.results = results
		c.search.currency = cur
	}
	return nil
}

// backfill prices hits from one listing snapshot and reports the currency
// those prices are quoted in.
func (c *Controller) backfill(hits []market.SearchHit) ([]market.Asset, market.Currency) {
	listing := c.listing.Current(false)
	known := make(map[string]market.Asset, len(listing.Assets))
	for _, a := range listing.Assets {
		known[a.ID] = a
	}

	out := make([]market.Asset, 0, len(hits))
	for _, hit := range hits {
		a := market.Asset{
			ID:            hit.ID,
			Name:          hit.Name,
			Symbol:        hit.Symbol,
			Image:         hit.Thumb,
			MarketCapRank: hit.MarketCapRank,
		}
		if k, ok := known[hit.ID]; ok {
			a.CurrentPrice = k.CurrentPrice
			a.MarketCap = k.MarketCap
			a.ChangePct24h = k.ChangePct24h
		}
		out = append(out, a)
	}
	return out, listing.Currency
}
