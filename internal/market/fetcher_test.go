package market

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingFetcher parks each Markets call until the test releases it.
type blockingFetcher struct {
	mu      sync.Mutex
	started int
	release map[Currency]chan []Asset
}

func (f *blockingFetcher) Markets(ctx context.Context, cur Currency, limit int) ([]Asset, error) {
	f.mu.Lock()
	f.started++
	ch := f.release[cur]
	f.mu.Unlock()
	select {
	case assets := <-ch:
		return assets, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *blockingFetcher) waitStarted(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		started := f.started
		f.mu.Unlock()
		if started >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("等待 %d 个请求启动超时", n)
}
