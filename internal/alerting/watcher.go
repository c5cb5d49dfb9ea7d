package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coindash/internal/market"
)

// WatcherOptions 配置异动检测。
type WatcherOptions struct {
	ThresholdPct float64
	Cooldown     time.Duration
}

// Watcher 在每次列表刷新后检查收藏资产的 24h 变化, 同一资产在冷却期内只告警一次。
type Watcher struct {
	notifier  Notifier
	threshold decimal.Decimal
	cooldown  time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// NewWatcher 构造 Watcher。
func NewWatcher(notifier Notifier, opts WatcherOptions, logger zerolog.Logger) *Watcher {
	return &Watcher{
		notifier:  notifier,
		threshold: decimal.NewFromFloat(opts.ThresholdPct),
		cooldown:  opts.Cooldown,
		now:       time.Now,
		last:      make(map[string]time.Time),
		logger:    logger.With().Str("component", "alert_watcher").Logger(),
	}
}

// Check 对给定资产逐一判断并推送, 返回发送成功的条数。
func (w *Watcher) Check(ctx context.Context, assets []market.Asset, cur market.Currency) (int, error) {
	if w == nil || w.notifier == nil {
		return 0, nil
	}

	now := w.now().UTC()
	sent := 0
	var errs []error
	for _, a := range assets {
		if a.ChangePct24h == nil {
			continue
		}
		change := decimal.NewFromFloat(*a.ChangePct24h)
		if change.Abs().LessThan(w.threshold) {
			continue
		}
		if !w.claim(a.ID, now) {
			continue
		}

		direction := "up"
		if change.IsNegative() {
			direction = "down"
		}
		note := Notification{
			At:           now,
			AssetID:      a.ID,
			Name:         a.Name,
			Symbol:       a.Symbol,
			Currency:     cur.String(),
			Price:        decimal.NewFromFloat(a.CurrentPrice),
			ChangePct:    change,
			ThresholdPct: w.threshold,
			Direction:    direction,
		}
		if err := w.notifier.Notify(ctx, note); err != nil {
			w.release(a.ID)
			w.logger.Error().Err(err).Str("asset", a.ID).Msg("发送告警失败")
			errs = append(errs, fmt.Errorf("notify %s: %w", a.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (w *Watcher) claim(id string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.last[id]; ok && now.Sub(last) < w.cooldown {
		return false
	}
	w.last[id] = now
	return true
}

func (w *Watcher) release(id string) {
	w.mu.Lock()
	delete(w.last, id)
	w.mu.Unlock()
}
