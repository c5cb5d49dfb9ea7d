package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coindash/internal/market"
)

// Source is the upstream the loader reads from.
type Source interface {
	Coin(ctx context.Context, id string) (market.Detail, error)
	MarketChart(ctx context.Context, id string, cur market.Currency, days int) ([]market.PricePoint, error)
}

// Options parameterise the loader.
type Options struct {
	Timeout time.Duration
	Days    int
}

// Loader fetches the detail screen data. The two loads are independent so a
// history failure never affects the detail fields.
type Loader struct {
	source  Source
	timeout time.Duration
	days    int
	logger  zerolog.Logger
}

// New constructs a Loader.
func New(source Source, opts Options, logger zerolog.Logger) *Loader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	days := opts.Days
	if days <= 0 {
		days = market.DefaultHistoryDays
	}
	return &Loader{
		source:  source,
		timeout: timeout,
		days:    days,
		logger:  logger.With().Str("component", "detail_loader").Logger(),
	}
}

// Days is the default history window.
func (l *Loader) Days() int { return l.days }

// LoadDetail fetches the extended fields of id. Values are kept for every
// currency; cur only scopes logging here and rendering later.
func (l *Loader) LoadDetail(ctx context.Context, id string, cur market.Currency) (market.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return market.Detail{}, fmt.Errorf("load detail: empty id: %w", market.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	started := time.Now()
	d, err := l.source.Coin(ctx, id)
	if err != nil {
		l.logger.Warn().Err(err).Str("id", id).Msg("detail fetch failed")
		return market.Detail{}, fmt.Errorf("load detail %s: %w", id, err)
	}
	l.logger.Debug().Str("id", id).Str("currency", cur.String()).Dur("elapsed", time.Since(started)).Msg("detail loaded")
	return d, nil
}

// LoadPriceHistory fetches the daily series; days <= 0 uses the configured window.
func (l *Loader) LoadPriceHistory(ctx context.Context, id string, cur market.Currency, days int) ([]market.PricePoint, error) {
	if days <= 0 {
		days = l.days
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	points, err := l.source.MarketChart(ctx, id, cur, days)
	if err != nil {
		l.logger.Warn().Err(err).Str("id", id).Str("currency", cur.String()).Msg("price history fetch failed")
		return nil, fmt.Errorf("load price history %s: %w", id, err)
	}
	return points, nil
}
