package coingecko

import (
	"encoding/json"
	"fmt"
	"time"

	"coindash/internal/market"
)

type marketRow struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	MarketCapRank *int     `json:"market_cap_rank"`
	CurrentPrice  *float64 `json:"current_price"`
	MarketCap     *float64 `json:"market_cap"`
	ChangePct24h  *float64 `json:"price_change_percentage_24h"`
}

func (r marketRow) asset() market.Asset {
	a := market.Asset{
		ID:            r.ID,
		Name:          r.Name,
		Symbol:        r.Symbol,
		Image:         r.Image,
		MarketCapRank: r.MarketCapRank,
		ChangePct24h:  r.ChangePct24h,
	}
	if r.CurrentPrice != nil {
		a.CurrentPrice = *r.CurrentPrice
	}
	if r.MarketCap != nil {
		a.MarketCap = *r.MarketCap
	}
	return a
}

type coinResponse struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Description   struct {
		En string `json:"en"`
	} `json:"description"`
	MarketData *struct {
		CurrentPrice                   map[string]*float64 `json:"current_price"`
		MarketCap                      map[string]*float64 `json:"market_cap"`
		ATH                            map[string]*float64 `json:"ath"`
		ATHDate                        map[string]*string  `json:"ath_date"`
		TotalVolume                    map[string]*float64 `json:"total_volume"`
		PriceChangePercentage24hInCurr map[string]*float64 `json:"price_change_percentage_24h_in_currency"`
		CirculatingSupply              *float64            `json:"circulating_supply"`
		TotalSupply                    *float64            `json:"total_supply"`
	} `json:"market_data"`
}

func (r coinResponse) detail() market.Detail {
	d := market.Detail{
		ID:            r.ID,
		Name:          r.Name,
		Symbol:        r.Symbol,
		Description:   r.Description.En,
		MarketCapRank: r.MarketCapRank,
	}
	if md := r.MarketData; md != nil {
		d.CurrentPrice = present(md.CurrentPrice)
		d.MarketCap = present(md.MarketCap)
		d.ATH = present(md.ATH)
		d.TotalVolume = present(md.TotalVolume)
		d.ChangePct24h = present(md.PriceChangePercentage24hInCurr)
		d.CirculatingSupply = md.CirculatingSupply
		d.TotalSupply = md.TotalSupply
		if len(md.ATHDate) > 0 {
			d.ATHDate = make(map[string]time.Time, len(md.ATHDate))
			for cur, raw := range md.ATHDate {
				if raw == nil {
					continue
				}
				if ts, err := time.Parse(time.RFC3339, *raw); err == nil {
					d.ATHDate[cur] = ts.UTC()
				}
			}
		}
	}
	return d
}

// present drops currencies the API reported as null so they read as absent.
func present(values map[string]*float64) map[string]float64 {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]float64, len(values))
	for cur, v := range values {
		if v != nil {
			out[cur] = *v
		}
	}
	return out
}

type chartResponse struct {
	Prices []pricePair `json:"prices"`
}

// pricePair decodes the [timestamp_ms, price] tuples of market_chart.
type pricePair market.PricePoint

func (p *pricePair) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("price pair: expected 2 values, got %d", len(raw))
	}
	p.Time = time.UnixMilli(int64(raw[0])).UTC()
	p.Price = raw[1]
	return nil
}

type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		Thumb         string `json:"thumb"`
		MarketCapRank *int   `json:"market_cap_rank"`
	} `json:"coins"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}
