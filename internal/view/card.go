package view

import (
	"strings"

	"coindash/internal/market"
)

// Card is the display model of one asset in the home grid or search results.
type Card struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol"`
	Image           string    `json:"image"`
	Rank            string    `json:"rank"`
	Price           string    `json:"price"`
	MarketCap       string    `json:"market_cap"`
	Change          string    `json:"change"`
	ChangeDirection Direction `json:"change_direction"`
	Favorite        bool      `json:"favorite"`
}

// RenderCard maps one asset to its card. It performs no I/O.
func RenderCard(a market.Asset, isFavorite bool, cur market.Currency) Card {
	change, dir := FormatPercent(a.ChangePct24h)
	return Card{
		ID:              a.ID,
		Name:            a.Name,
		Symbol:          strings.ToUpper(a.Symbol),
		Image:           a.Image,
		Rank:            FormatRank(a.MarketCapRank),
		Price:           FormatPrice(a.CurrentPrice, cur),
		MarketCap:       FormatNumber(a.MarketCap),
		Change:          change,
		ChangeDirection: dir,
		Favorite:        isFavorite,
	}
}

// RenderCards maps a listing, asking isFavorite for each id.
func RenderCards(assets []market.Asset, isFavorite func(id string) bool, cur market.Currency) []Card {
	cards := make([]Card, 0, len(assets))
	for _, a := range assets {
		cards = append(cards, RenderCard(a, isFavorite != nil && isFavorite(a.ID), cur))
	}
	return cards
}
