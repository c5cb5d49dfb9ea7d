package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// Screen identifies the visible screen. Exactly one is active at a time.
type Screen string

const (
	ScreenHome   Screen = "home"
	ScreenSearch Screen = "search"
	ScreenDetail Screen = "detail"
)

var (
	ErrUnknownScreen       = errors.New("unknown screen")
	ErrNoSelection         = errors.New("no asset selected")
	ErrInactiveScreen      = errors.New("action not available on the current screen")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrUnsupportedInterval = errors.New("unsupported refresh interval")
	ErrClosed              = errors.New("dashboard closed")
)

// ParseScreen validates a screen name.
func ParseScreen(v string) (Screen, error) {
	switch s := Screen(strings.ToLower(strings.TrimSpace(v))); s {
	case ScreenHome, ScreenSearch, ScreenDetail:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScreen, v)
	}
}

// Status lines shown on the screens.
const (
	StatusLoading         = "Loading..."
	StatusListingError    = "Error loading data. Try refreshing."
	StatusSearching       = "Searching..."
	StatusNoResults       = "No results found."
	StatusSearchError     = "Error performing search."
	StatusLoadingDetails  = "Loading details..."
	StatusCoinNotFound    = "Coin not found."
	StatusDetailError     = "Error loading coin details."
	StatusFavoritesFailed = "Could not update favorites."
	StatusNoCoins         = "No coins to display."
	StatusNoPriceHistory  = "No price data available."
	statusShowingTemplate = "Showing top %d coins."
	statusFoundTemplate   = "Found %d results."
)

func showingStatus(n int) string { return fmt.Sprintf(statusShowingTemplate, n) }

func foundStatus(n int) string { return fmt.Sprintf(statusFoundTemplate, n) }
