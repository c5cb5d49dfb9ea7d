package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"coindash/internal/market"
)

// SelectAsset opens the detail screen for id and starts both loads. They
// resolve on their own goroutines; a result is applied only while the same
// id is still on screen under the same request token.
func (c *Controller) SelectAsset(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNoSelection
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.screen = ScreenDetail
	c.detail = detailState{token: c.detail.token, id: id}
	c.resumeDetailLocked(true, true)
	return nil
}

// resumeDetailLocked issues a new token for the current detail id and
// launches the requested loads. Results of older tokens are dropped.
func (c *Controller) resumeDetailLocked(loadDetail, loadHistory bool) {
	c.detail.token++
	if c.closed || (!loadDetail && !loadHistory) {
		return
	}

	token, id, cur := c.detail.token, c.detail.id, c.currency
	if loadDetail {
		c.detail.detailPending = true
		c.detail.status = StatusLoadingDetails
	}
	if loadHistory {
		c.detail.historyPending = true
		c.detail.historyFailed = false
		c.detail.history = nil
	}
	settled := make(chan struct{})
	c.detail.settled = settled

	var wg sync.WaitGroup
	if loadDetail {
		wg.Add(1)
		c.loads.Add(1)
		go func() {
			defer c.loads.Done()
			defer wg.Done()
			d, err := c.loader.LoadDetail(c.base, id, cur)
			c.applyDetail(token, id, d, err)
		}()
	}
	if loadHistory {
		wg.Add(1)
		c.loads.Add(1)
		go func() {
			defer c.loads.Done()
			defer wg.Done()
			points, err := c.loader.LoadPriceHistory(c.base, id, cur, c.opts.HistoryDays)
			c.applyHistory(token, id, cur, points, err)
		}()
	}
	c.loads.Add(1)
	go func() {
		defer c.loads.Done()
		wg.Wait()
		close(settled)
	}()
}

func (c *Controller) currentDetailLocked(token uint64, id string) bool {
	return c.screen == ScreenDetail && c.detail.token == token && c.detail.id == id
}

func (c *Controller) applyDetail(token uint64, id string, d market.Detail, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentDetailLocked(token, id) {
		c.logger.Debug().Str("id", id).Msg("discarding stale detail response")
		return
	}

	c.detail.detailPending = false
	switch {
	case err == nil:
		c.detail.detail = &d
		c.detail.status = ""
	case errors.Is(err, market.ErrNotFound):
		c.detail.status = StatusCoinNotFound
	default:
		c.detail.status = StatusDetailError
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn().Err(err).Str("id", id).Msg("detail load failed")
		}
	}
}

func (c *Controller) applyHistory(token uint64, id string, cur market.Currency, points []market.PricePoint, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentDetailLocked(token, id) {
		c.logger.Debug().Str("id", id).Msg("discarding stale price history")
		return
	}

	c.detail.historyPending = false
	if err != nil {
		c.detail.historyFailed = true
		return
	}
	c.detail.history = points
	c.detail.historyCurrency = cur
}

// Settle blocks until the loads of the current detail request finish or ctx
// is done. It returns immediately when nothing is in flight.
func (c *Controller) Settle(ctx context.Context) error {
	c.mu.Lock()
	settled := c.detail.settled
	c.mu.Unlock()
	if settled == nil {
		return nil
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// History returns the loaded price series for id while its detail screen is
// active.
func (c *Controller) History(id string) ([]market.PricePoint, market.Currency, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != ScreenDetail || c.detail.id != id || c.detail.historyPending || c.detail.historyFailed {
		return nil, "", false
	}
	return c.detail.history, c.detail.historyCurrency, len(c.detail.history) > 0
}
