package market

import (
	"strings"
	"time"
)

const (
	// DefaultListingSize is the number of top ranked assets shown on the home screen.
	DefaultListingSize = 50
	// DefaultHistoryDays is the price history window of the detail chart.
	DefaultHistoryDays = 30
)

// Currency is a quote currency code as understood by the market data API.
type Currency string

// NormalizeCurrency lower-cases and trims a user supplied currency code.
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToLower(strings.TrimSpace(code)))
}

func (c Currency) String() string { return string(c) }

// Asset is one row of the top-N listing. Snapshots are replaced wholesale on
// reload and never mutated in place.
type Asset struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Image         string   `json:"image"`
	MarketCapRank *int     `json:"market_cap_rank,omitempty"`
	CurrentPrice  float64  `json:"current_price"`
	MarketCap     float64  `json:"market_cap"`
	ChangePct24h  *float64 `json:"price_change_percentage_24h,omitempty"`
}

// Detail carries the extended fields of one asset. Currency-indexed maps are
// keyed by lower-case currency code.
type Detail struct {
	ID                string
	Name              string
	Symbol            string
	Description       string
	MarketCapRank     *int
	CirculatingSupply *float64
	TotalSupply       *float64
	CurrentPrice      map[string]float64
	MarketCap         map[string]float64
	ATH               map[string]float64
	ATHDate           map[string]time.Time
	TotalVolume       map[string]float64
	ChangePct24h      map[string]float64
}

// PricePoint is one sample of a price history series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// SearchHit is a lightweight search result without market figures.
type SearchHit struct {
	ID            string
	Name          string
	Symbol        string
	Thumb         string
	MarketCapRank *int
}

// Lookup returns the value of a currency-indexed field.
func Lookup[V any](values map[string]V, cur Currency) (V, bool) {
	v, ok := values[string(cur)]
	return v, ok
}
