package dashboard

import (
	"time"

	"coindash/internal/chart"
	"coindash/internal/market"
	"coindash/internal/view"
)

// Page is a render snapshot of the dashboard. Only the section of the
// active screen is populated.
type Page struct {
	Screen         Screen            `json:"screen"`
	Currency       market.Currency   `json:"currency"`
	Currencies     []market.Currency `json:"currencies"`
	Sort           market.SortKey    `json:"sort"`
	SortKeys       []market.SortKey  `json:"sort_keys"`
	RefreshSeconds int               `json:"refresh_seconds"`
	RefreshOptions []int             `json:"refresh_options"`
	FavoritesOnly  bool              `json:"favorites_only"`

	Home   *HomePage   `json:"home,omitempty"`
	Search *SearchPage `json:"search,omitempty"`
	Detail *DetailPage `json:"detail,omitempty"`
}

// HomePage is the top-N grid.
type HomePage struct {
	Status    string          `json:"status"`
	Currency  market.Currency `json:"currency"`
	Cards     []view.Card     `json:"cards"`
	Empty     string          `json:"empty,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SearchPage is the search box and its results.
type SearchPage struct {
	Query    string          `json:"query"`
	Currency market.Currency `json:"currency"`
	Status   string          `json:"status"`
	Cards    []view.Card     `json:"cards"`
}

// DetailPage is the detail fields and the chart region.
type DetailPage struct {
	ID             string           `json:"id"`
	Status         string           `json:"status"`
	Loading        bool             `json:"loading"`
	View           *view.DetailView `json:"view,omitempty"`
	HistoryLoading bool             `json:"history_loading"`
	HasChart       bool             `json:"has_chart"`
	ChartLabel     string           `json:"chart_label,omitempty"`
	ChartNote      string           `json:"chart_note,omitempty"`
}

// Page builds a snapshot for rendering. Every home read is freshly sorted.
func (c *Controller) Page() Page {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := Page{
		Screen:         c.screen,
		Currency:       c.currency,
		Currencies:     c.opts.Currencies,
		Sort:           c.listing.Sort(),
		SortKeys:       market.SortKeys,
		RefreshSeconds: c.refreshSeconds,
		RefreshOptions: c.opts.RefreshOptions,
		FavoritesOnly:  c.favoritesOnly,
	}

	switch c.screen {
	case ScreenHome:
		listing := c.listing.Current(c.favoritesOnly)
		cur := c.quotedIn(listing.Currency)
		home := &HomePage{
			Status:    c.home.status,
			Currency:  cur,
			Cards:     view.RenderCards(listing.Assets, c.favorites.Contains, cur),
			FetchedAt: listing.FetchedAt,
		}
		if len(home.Cards) == 0 {
			home.Empty = StatusNoCoins
		}
		page.Home = home
	case ScreenSearch:
		cur := c.quotedIn(c.search.currency)
		page.Search = &SearchPage{
			Query:    c.search.query,
			Currency: cur,
			Status:   c.search.status,
			Cards:    view.RenderCards(c.search.results, c.favorites.Contains, cur),
		}
	case ScreenDetail:
		page.Detail = c.detailPageLocked()
	}
	return page
}

// quotedIn labels cards with the currency their prices were fetched in.
// Before the first snapshot there are no prices to mislabel.
func (c *Controller) quotedIn(cur market.Currency) market.Currency {
	if cur == "" {
		return c.currency
	}
	return cur
}

func (c *Controller) detailPageLocked() *DetailPage {
	d := c.detail
	p := &DetailPage{
		ID:             d.id,
		Status:         d.status,
		Loading:        d.detailPending,
		HistoryLoading: d.historyPending,
	}
	if d.detail != nil {
		v := view.RenderDetail(*d.detail, c.currency)
		p.View = &v
	}
	switch {
	case d.historyPending:
	case !d.historyFailed && len(d.history) >= 2:
		p.HasChart = true
		p.ChartLabel = chart.Label(d.id, d.historyCurrency)
	default:
		p.ChartNote = StatusNoPriceHistory
	}
	return p
}
