package market

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey orders the listing by one field in one direction.
type SortKey string

const (
	SortMarketCapAsc  SortKey = "market_cap_asc"
	SortMarketCapDesc SortKey = "market_cap_desc"
	SortPriceAsc      SortKey = "price_asc"
	SortPriceDesc     SortKey = "price_desc"
	SortChangeAsc     SortKey = "change_asc"
	SortChangeDesc    SortKey = "change_desc"
)

// SortKeys lists every supported key in selector order.
var SortKeys = []SortKey{
	SortMarketCapDesc,
	SortMarketCapAsc,
	SortPriceDesc,
	SortPriceAsc,
	SortChangeDesc,
	SortChangeAsc,
}

// ParseSortKey validates a sort selector value.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Label is the human readable selector text.
func (k SortKey) Label() string {
	switch k {
	case SortMarketCapAsc:
		return "Market Cap ↑"
	case SortMarketCapDesc:
		return "Market Cap ↓"
	case SortPriceAsc:
		return "Price ↑"
	case SortPriceDesc:
		return "Price ↓"
	case SortChangeAsc:
		return "24h Change ↑"
	case SortChangeDesc:
		return "24h Change ↓"
	default:
		return string(k)
	}
}

// Compare orders two assets under the key. Missing 24h change counts as zero.
func (k SortKey) Compare(a, b Asset) int {
	switch k {
	case SortMarketCapAsc:
		return cmp.Compare(a.MarketCap, b.MarketCap)
	case SortMarketCapDesc:
		return cmp.Compare(b.MarketCap, a.MarketCap)
	case SortPriceAsc:
		return cmp.Compare(a.CurrentPrice, b.CurrentPrice)
	case SortPriceDesc:
		return cmp.Compare(b.CurrentPrice, a.CurrentPrice)
	case SortChangeAsc:
		return cmp.Compare(changeOrZero(a), changeOrZero(b))
	case SortChangeDesc:
		return cmp.Compare(changeOrZero(b), changeOrZero(a))
	default:
		return 0
	}
}

// SortAssets returns a stably sorted copy; ties keep their input order.
func SortAssets(assets []Asset, key SortKey) []Asset {
	out := slices.Clone(assets)
	slices.SortStableFunc(out, key.Compare)
	return out
}

func changeOrZero(a Asset) float64 {
	if a.ChangePct24h == nil {
		return 0
	}
	return *a.ChangePct24h
}
