package view

import (
	"fmt"
	"strings"

	"coindash/internal/market"
)

// DetailView is the display model of the detail screen fields.
type DetailView struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Rank              string    `json:"rank"`
	Price             string    `json:"price"`
	MarketCap         string    `json:"market_cap"`
	TotalSupply       string    `json:"total_supply"`
	CirculatingSupply string    `json:"circulating_supply"`
	Change            string    `json:"change"`
	ChangeDirection   Direction `json:"change_direction"`
	ATH               string    `json:"ath"`
	ATHDate           string    `json:"ath_date"`
	Volume            string    `json:"volume"`
}

// RenderDetail scopes the currency-indexed fields to cur. A currency missing
// from a field renders as N/A.
func RenderDetail(d market.Detail, cur market.Currency) DetailView {
	price := func(values map[string]float64) string {
		v, ok := market.Lookup(values, cur)
		if !ok {
			return NotAvailable
		}
		return FormatPrice(v, cur)
	}
	amount := func(values map[string]float64) string {
		v, ok := market.Lookup(values, cur)
		if !ok {
			return NotAvailable
		}
		return FormatNumber(v)
	}

	var change *float64
	if v, ok := market.Lookup(d.ChangePct24h, cur); ok {
		change = &v
	}
	changeText, dir := FormatPercent(change)

	athDate, _ := market.Lookup(d.ATHDate, cur)

	return DetailView{
		ID:                d.ID,
		Title:             fmt.Sprintf("%s (%s)", d.Name, strings.ToUpper(d.Symbol)),
		Description:       FirstSentence(d.Description),
		Rank:              FormatRank(d.MarketCapRank),
		Price:             price(d.CurrentPrice),
		MarketCap:         amount(d.MarketCap),
		TotalSupply:       FormatOptionalNumber(d.TotalSupply),
		CirculatingSupply: FormatOptionalNumber(d.CirculatingSupply),
		Change:            changeText,
		ChangeDirection:   dir,
		ATH:               price(d.ATH),
		ATHDate:           FormatDate(athDate),
		Volume:            amount(d.TotalVolume),
	}
}
