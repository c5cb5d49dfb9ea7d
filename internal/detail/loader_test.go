package detail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coindash/internal/market"
)

type fakeSource struct {
	detail    market.Detail
	detailErr error
	points    []market.PricePoint
	chartErr  error
	days      int
	deadline  bool
}

func (f *fakeSource) Coin(ctx context.Context, id string) (market.Detail, error) {
	_, f.deadline = ctx.Deadline()
	return f.detail, f.detailErr
}

func (f *fakeSource) MarketChart(ctx context.Context, id string, cur market.Currency, days int) ([]market.PricePoint, error) {
	f.days = days
	return f.points, f.chartErr
}

func TestLoadDetailAppliesTimeout(t *testing.T) {
	src := &fakeSource{detail: market.Detail{ID: "bitcoin"}}
	l := New(src, Options{Timeout: time.Second}, zerolog.Nop())

	d, err := l.LoadDetail(context.Background(), "bitcoin", "usd")
	if err != nil || d.ID != "bitcoin" {
		t.Fatalf("LoadDetail 错误: %v %#v", err, d)
	}
	if !src.deadline {
		t.Fatal("请求应带超时")
	}
}

func TestLoadDetailEmptyIDIsNotFound(t *testing.T) {
	l := New(&fakeSource{}, Options{}, zerolog.Nop())
	if _, err := l.LoadDetail(context.Background(), "  ", "usd"); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("空 id 应为 ErrNotFound, 实际 %v", err)
	}
}

func TestLoadDetailPropagatesKind(t *testing.T) {
	l := New(&fakeSource{detailErr: market.ErrNotFound}, Options{}, zerolog.Nop())
	if _, err := l.LoadDetail(context.Background(), "nope", "usd"); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("应保留 ErrNotFound, 实际 %v", err)
	}
}

func TestLoadPriceHistoryDefaultsDays(t *testing.T) {
	src := &fakeSource{points: []market.PricePoint{{Price: 1}}}
	l := New(src, Options{}, zerolog.Nop())

	points, err := l.LoadPriceHistory(context.Background(), "bitcoin", "usd", 0)
	if err != nil || len(points) != 1 {
		t.Fatalf("LoadPriceHistory 错误: %v", err)
	}
	if src.days != 30 {
		t.Fatalf("默认应取 30 天, 实际 %d", src.days)
	}
}

func TestLoadPriceHistoryFailure(t *testing.T) {
	l := New(&fakeSource{chartErr: &market.NetworkError{Op: "market_chart", StatusCode: 500}}, Options{}, zerolog.Nop())
	if _, err := l.LoadPriceHistory(context.Background(), "bitcoin", "usd", 30); !errors.Is(err, market.ErrNetwork) {
		t.Fatalf("应为 ErrNetwork, 实际 %v", err)
	}
}
