package view

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"coindash/internal/market"
)

// NotAvailable is rendered for every missing optional figure.
const NotAvailable = "N/A"

// Direction classifies a percent change for colouring.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

var currencySymbols = map[market.Currency]string{
	"usd": "$",
	"eur": "€",
	"pkr": "₨",
	"gbp": "£",
	"inr": "₹",
}

var printer = message.NewPrinter(language.English)

// CurrencySymbol returns the display prefix for cur, empty when unknown.
func CurrencySymbol(cur market.Currency) string {
	return currencySymbols[market.NormalizeCurrency(string(cur))]
}

// FormatNumber groups thousands and keeps at most two fraction digits.
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatOptionalNumber is FormatNumber with N/A for absent values.
func FormatOptionalNumber(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return FormatNumber(*v)
}

// FormatPrice prefixes the currency symbol and keeps two to six fraction digits.
func FormatPrice(v float64, cur market.Currency) string {
	return CurrencySymbol(cur) + printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(6)))
}

// FormatPercent renders exactly two decimals; zero counts as up.
func FormatPercent(v *float64) (string, Direction) {
	if v == nil {
		return NotAvailable, DirectionNone
	}
	text := decimal.NewFromFloat(*v).StringFixed(2) + "%"
	if *v >= 0 {
		return text, DirectionUp
	}
	return text, DirectionDown
}

// FormatRank renders "#n"; nil and zero ranks are unknown.
func FormatRank(rank *int) string {
	if rank == nil || *rank == 0 {
		return NotAvailable
	}
	return printer.Sprintf("#%d", *rank)
}

// FormatDate renders a calendar date or N/A for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format("2006-01-02")
}

// FirstSentence trims a description down to its opening sentence.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	first, _, _ := strings.Cut(text, ". ")
	first = strings.TrimSpace(first)
	if !strings.HasSuffix(first, ".") {
		first += "."
	}
	return first
}
