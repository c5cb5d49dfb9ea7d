package market

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

type stubFetcher struct {
	assets []Asset
	err    error
	calls  int
	last   Currency
}

func (f *stubFetcher) Markets(ctx context.Context, cur Currency, limit int) ([]Asset, error) {
	f.calls++
	f.last = cur
	if f.err != nil {
		return nil, f.err
	}
	return f.assets, nil
}

type setMembership map[string]bool

func (m setMembership) Contains(id string) bool { return m[id] }

func pct(v float64) *float64 { return &v }

func ids(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}

func newTestStore(f Fetcher, favs Membership) *Store {
	return NewStore(f, favs, StoreOptions{}, zerolog.Nop())
}

func TestStorePriceAscending(t *testing.T) {
	f := &stubFetcher{assets: []Asset{
		{ID: "a", CurrentPrice: 100},
		{ID: "b", CurrentPrice: 50},
		{ID: "c", CurrentPrice: 75},
	}}
	s := newTestStore(f, nil)
	if _, err := s.Reload(context.Background(), "usd"); err != nil {
		t.Fatalf("reload 不应失败: %v", err)
	}
	s.SetSort(SortPriceAsc)

	got := s.CurrentView(false)
	prices := []float64{got[0].CurrentPrice, got[1].CurrentPrice, got[2].CurrentPrice}
	if !slices.Equal(prices, []float64{50, 75, 100}) {
		t.Fatalf("期望 [50 75 100], 实际 %v", prices)
	}
}

func TestStoreSortKeysStableAndMissingChange(t *testing.T) {
	assets := []Asset{
		{ID: "a", MarketCap: 10, CurrentPrice: 3, ChangePct24h: pct(2)},
		{ID: "b", MarketCap: 30, CurrentPrice: 3, ChangePct24h: nil},
		{ID: "c", MarketCap: 10, CurrentPrice: 1, ChangePct24h: pct(-1)},
		{ID: "d", MarketCap: 20, CurrentPrice: 2, ChangePct24h: pct(0)},
	}
	cases := map[SortKey][]string{
		SortMarketCapAsc:  {"a", "c", "d", "b"},
		SortMarketCapDesc: {"b", "d", "a", "c"},
		SortPriceAsc:      {"c", "d", "a", "b"},
		SortPriceDesc:     {"a", "b", "d", "c"},
		SortChangeAsc:     {"c", "b", "d", "a"},
		SortChangeDesc:    {"a", "b", "d", "c"},
	}

	s := newTestStore(&stubFetcher{assets: assets}, nil)
	if _, err := s.Reload(context.Background(), "usd"); err != nil {
		t.Fatalf("reload 不应失败: %v", err)
	}
	for key, want := range cases {
		s.SetSort(key)
		if got := ids(s.CurrentView(false)); !slices.Equal(got, want) {
			t.Fatalf("%s: 期望 %v, 实际 %v", key, want, got)
		}
	}
}

func TestStoreSortsFromFetchOrderEveryRead(t *testing.T) {
	assets := []Asset{
		{ID: "x", MarketCap: 5, CurrentPrice: 1},
		{ID: "y", MarketCap: 5, CurrentPrice: 2},
	}
	s := newTestStore(&stubFetcher{assets: assets}, nil)
	_, _ = s.Reload(context.Background(), "usd")

	s.SetSort(SortPriceDesc)
	_ = s.CurrentView(false)
	s.SetSort(SortMarketCapAsc)
	// ties fall back to fetch order, not to the previous sort
	if got := ids(s.CurrentView(false)); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("平局应按原始顺序, 实际 %v", got)
	}
}

func TestStoreCurrentViewIdempotent(t *testing.T) {
	s := newTestStore(&stubFetcher{assets: []Asset{{ID: "a", MarketCap: 2}, {ID: "b", MarketCap: 9}}}, nil)
	_, _ = s.Reload(context.Background(), "usd")

	first := s.CurrentView(false)
	second := s.CurrentView(false)
	if !slices.Equal(ids(first), ids(second)) {
		t.Fatalf("两次读取应一致: %v vs %v", ids(first), ids(second))
	}
}

func TestStoreFavoritesFilter(t *testing.T) {
	f := &stubFetcher{assets: []Asset{{ID: "bitcoin", MarketCap: 2}, {ID: "ethereum", MarketCap: 1}}}
	s := newTestStore(f, setMembership{"bitcoin": true})
	_, _ = s.Reload(context.Background(), "usd")

	got := s.CurrentView(true)
	if len(got) != 1 || got[0].ID != "bitcoin" {
		t.Fatalf("只应返回 bitcoin, 实际 %v", ids(got))
	}
}

func TestStoreFilterNoMatchesIsEmpty(t *testing.T) {
	s := newTestStore(&stubFetcher{assets: []Asset{{ID: "a"}}}, setMembership{})
	_, _ = s.Reload(context.Background(), "usd")

	got := s.CurrentView(true)
	if got == nil || len(got) != 0 {
		t.Fatalf("无匹配时应返回空切片, 实际 %#v", got)
	}
}

func TestStoreReloadFailureKeepsSnapshot(t *testing.T) {
	f := &stubFetcher{assets: []Asset{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	s := newTestStore(f, nil)
	if _, err := s.Reload(context.Background(), "usd"); err != nil {
		t.Fatalf("首次 reload 不应失败: %v", err)
	}

	f.err = &NetworkError{Op: "markets", StatusCode: 503}
	_, err := s.Reload(context.Background(), "eur")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("应返回 ErrNetwork, 实际 %v", err)
	}
	if got := s.CurrentView(false); len(got) != 3 {
		t.Fatalf("失败后应保留 3 条旧数据, 实际 %d", len(got))
	}
	if s.Currency() != "usd" {
		t.Fatalf("失败后币种应保持 usd, 实际 %s", s.Currency())
	}
}

func TestStoreDropsSupersededResponse(t *testing.T) {
	f := &blockingFetcher{release: make(map[Currency]chan []Asset)}
	f.release["usd"] = make(chan []Asset)
	f.release["eur"] = make(chan []Asset)
	s := newTestStore(f, nil)

	usdDone := make(chan struct{})
	var usdView View
	go func() {
		defer close(usdDone)
		usdView, _ = s.Reload(context.Background(), "usd")
	}()
	f.waitStarted(t, 1)

	eurDone := make(chan struct{})
	go func() {
		defer close(eurDone)
		_, _ = s.Reload(context.Background(), "eur")
	}()
	f.waitStarted(t, 2)

	f.release["eur"] <- []Asset{{ID: "eur-asset"}}
	<-eurDone
	f.release["usd"] <- []Asset{{ID: "usd-asset"}}
	<-usdDone

	if s.Currency() != "eur" {
		t.Fatalf("较新的 eur 响应应胜出, 实际 %s", s.Currency())
	}
	if got := ids(s.CurrentView(false)); !slices.Equal(got, []string{"eur-asset"}) {
		t.Fatalf("旧响应应被丢弃, 实际 %v", got)
	}
	if usdView.Currency != "eur" || !slices.Equal(ids(usdView.Assets), []string{"eur-asset"}) {
		t.Fatalf("被丢弃的请求应返回当前快照, 实际 %s %v", usdView.Currency, ids(usdView.Assets))
	}
}

type currencyFetcher map[Currency][]Asset

func (f currencyFetcher) Markets(_ context.Context, cur Currency, _ int) ([]Asset, error) {
	return f[cur], nil
}

func TestStoreAppliesInRequestOrder(t *testing.T) {
	s := newTestStore(currencyFetcher{
		"usd": {{ID: "usd-asset"}},
		"eur": {{ID: "eur-asset"}},
	}, nil)

	usd := s.NewRequest("usd")
	eur := s.NewRequest("eur")
	if eur.Currency() != "eur" {
		t.Fatalf("请求币种错误: %s", eur.Currency())
	}

	// 较新的请求先完成
	if v, err := s.Fetch(context.Background(), eur); err != nil || v.Currency != "eur" {
		t.Fatalf("eur 请求应被应用: %v %v", v, err)
	}
	v, err := s.Fetch(context.Background(), usd)
	if err != nil {
		t.Fatal(err)
	}
	if v.Currency != "eur" || s.Currency() != "eur" {
		t.Fatalf("较早预留的 usd 响应不应覆盖 eur, 实际 %s/%s", v.Currency, s.Currency())
	}
	if got := ids(s.CurrentView(false)); !slices.Equal(got, []string{"eur-asset"}) {
		t.Fatalf("快照应保持 eur, 实际 %v", got)
	}
}

func TestStoreCurrentCarriesCurrency(t *testing.T) {
	s := newTestStore(&stubFetcher{assets: []Asset{{ID: "b", CurrentPrice: 1}, {ID: "a", CurrentPrice: 2}}}, setMembership{"a": true})
	if v := s.Current(false); len(v.Assets) != 0 || v.Currency != "" || !v.FetchedAt.IsZero() {
		t.Fatalf("空快照应为空视图: %#v", v)
	}
	if _, err := s.Reload(context.Background(), "gbp"); err != nil {
		t.Fatal(err)
	}
	v := s.Current(true)
	if v.Currency != "gbp" || !slices.Equal(ids(v.Assets), []string{"a"}) || v.FetchedAt.IsZero() {
		t.Fatalf("视图内容错误: %#v", v)
	}
}

func TestStoreLookup(t *testing.T) {
	s := newTestStore(&stubFetcher{assets: []Asset{{ID: "bitcoin", CurrentPrice: 1}}}, nil)
	if _, ok := s.Lookup("bitcoin"); ok {
		t.Fatal("空快照不应命中")
	}
	_, _ = s.Reload(context.Background(), "usd")
	a, ok := s.Lookup("bitcoin")
	if !ok || a.CurrentPrice != 1 {
		t.Fatalf("应命中 bitcoin, 实际 %#v %v", a, ok)
	}
	if s.FetchedAt().IsZero() || s.Len() != 1 {
		t.Fatal("reload 后应记录时间与数量")
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey(" Price_Asc "); err != nil || k != SortPriceAsc {
		t.Fatalf("应解析 price_asc, 实际 %q %v", k, err)
	}
	if _, err := ParseSortKey("volume_desc"); err == nil {
		t.Fatal("未知排序应报错")
	}
}
