package app

import (
	"context"
	"errors"
	"fmt"

	"coindash/internal/market"
)

// SimulateOptions describe a synthetic favorite movement.
type SimulateOptions struct {
	ID        string
	Currency  string
	Price     float64
	ChangePct float64
}

// SimulateAlert 通过给定的价格与 24h 变化模拟一次收藏异动告警。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}
	cur, err := a.currency(opts.Currency)
	if err != nil {
		return err
	}

	watcher := a.newWatcher(a.newNotifier())
	if watcher == nil {
		return errors.New("未配置任何告警通道")
	}

	change := opts.ChangePct
	asset := market.Asset{
		ID:           opts.ID,
		Name:         opts.ID,
		Symbol:       opts.ID,
		CurrentPrice: opts.Price,
		ChangePct24h: &change,
	}
	sent, err := watcher.Check(ctx, []market.Asset{asset}, cur)
	if err != nil {
		return err
	}
	if sent == 0 {
		return fmt.Errorf("变化 %.2f%% 未达到阈值 %.2f%%", opts.ChangePct, a.Config.Alerting.ThresholdPct)
	}
	a.Logger.Info().Str("id", opts.ID).Msg("模拟告警已发送")
	return nil
}
