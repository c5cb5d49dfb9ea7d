package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coindash/internal/market"
)

func newTestClient(url string) *Client {
	return New(Options{BaseURL: url, Timeout: time.Second, UserAgent: "test", APIKey: "k"}, zerolog.Nop())
}

func TestMarketsQueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Fatalf("路径错误: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("vs_currency") != "eur" || q.Get("order") != "market_cap_desc" || q.Get("per_page") != "50" || q.Get("page") != "1" || q.Get("price_change_percentage") != "24h" {
			t.Fatalf("查询参数错误: %s", r.URL.RawQuery)
		}
		if r.Header.Get("x-cg-demo-api-key") != "k" {
			t.Fatalf("缺少 API key 头")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"b.png","market_cap_rank":1,"current_price":50000.5,"market_cap":1e12,"price_change_percentage_24h":-1.25},
			{"id":"odd","symbol":"odd","name":"Odd","image":"","market_cap_rank":null,"current_price":null,"market_cap":null,"price_change_percentage_24h":null}
		]`))
	}))
	defer srv.Close()

	assets, err := newTestClient(srv.URL).Markets(context.Background(), "eur", 50)
	if err != nil {
		t.Fatalf("Markets 不应失败: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("期望 2 条, 实际 %d", len(assets))
	}
	btc := assets[0]
	if btc.ID != "bitcoin" || btc.CurrentPrice != 50000.5 || btc.MarketCapRank == nil || *btc.MarketCapRank != 1 || btc.ChangePct24h == nil || *btc.ChangePct24h != -1.25 {
		t.Fatalf("bitcoin 解析错误: %#v", btc)
	}
	odd := assets[1]
	if odd.MarketCapRank != nil || odd.ChangePct24h != nil || odd.CurrentPrice != 0 {
		t.Fatalf("null 字段应为空: %#v", odd)
	}
}

func TestMarketsHTTPErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429,"error_message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Markets(context.Background(), "usd", 50)
	if !errors.Is(err, market.ErrNetwork) {
		t.Fatalf("429 应归类为 ErrNetwork, 实际 %v", err)
	}
	var netErr *market.NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("应携带状态码 429, 实际 %v", err)
	}
}

func TestMarketsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := newTestClient(url).Markets(context.Background(), "usd", 50); !errors.Is(err, market.ErrNetwork) {
		t.Fatalf("连接失败应为 ErrNetwork, 实际 %v", err)
	}
}

func TestCoinNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Coin(context.Background(), "nope")
	if !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("404 应为 ErrNotFound, 实际 %v", err)
	}
	if errors.Is(err, market.ErrNetwork) {
		t.Fatal("404 不应归类为网络错误")
	}
}

func TestCoinDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/ethereum" || r.URL.Query().Get("market_data") != "true" {
			t.Fatalf("请求错误: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"id":"ethereum","symbol":"eth","name":"Ethereum","market_cap_rank":2,
			"description":{"en":"Ethereum is a chain. It has apps."},
			"market_data":{
				"current_price":{"usd":3000},
				"market_cap":{"usd":360000000000},
				"ath":{"usd":4878.26},
				"ath_date":{"usd":"2021-11-10T14:24:19.604Z"},
				"total_volume":{"usd":1500000},
				"price_change_percentage_24h_in_currency":{"usd":0},
				"circulating_supply":120000000,
				"total_supply":null
			}
		}`))
	}))
	defer srv.Close()

	d, err := newTestClient(srv.URL).Coin(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("Coin 不应失败: %v", err)
	}
	if d.Name != "Ethereum" || d.CurrentPrice["usd"] != 3000 || d.TotalSupply != nil || d.CirculatingSupply == nil {
		t.Fatalf("详情解析错误: %#v", d)
	}
	if got := d.ATHDate["usd"]; got.Year() != 2021 || got.Month() != time.November {
		t.Fatalf("ATH 日期解析错误: %v", got)
	}
	if v, ok := market.Lookup(d.ChangePct24h, "usd"); !ok || v != 0 {
		t.Fatalf("24h 变化应为 0, 实际 %v %v", v, ok)
	}
}

func TestCoinDecodeNullQuotesAreAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id":"tiny","symbol":"tny","name":"Tiny",
			"market_data":{
				"current_price":{"usd":1.5,"eur":null},
				"ath":{"usd":null},
				"ath_date":{"usd":null},
				"price_change_percentage_24h_in_currency":{"usd":null}
			}
		}`))
	}))
	defer srv.Close()

	d, err := newTestClient(srv.URL).Coin(context.Background(), "tiny")
	if err != nil {
		t.Fatalf("Coin 不应失败: %v", err)
	}
	if v, ok := market.Lookup(d.CurrentPrice, "usd"); !ok || v != 1.5 {
		t.Fatalf("usd 价格应存在, 实际 %v %v", v, ok)
	}
	if _, ok := market.Lookup(d.CurrentPrice, "eur"); ok {
		t.Fatal("null 的 eur 价格应视为缺失")
	}
	if _, ok := market.Lookup(d.ATH, "usd"); ok {
		t.Fatal("null 的 ATH 应视为缺失")
	}
	if _, ok := market.Lookup(d.ChangePct24h, "usd"); ok {
		t.Fatal("null 的 24h 变化应视为缺失")
	}
	if _, ok := market.Lookup(d.ATHDate, "usd"); ok {
		t.Fatal("null 的 ATH 日期应视为缺失")
	}
}

func TestMarketChartDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/coins/bitcoin/market_chart" || q.Get("days") != "30" || q.Get("interval") != "daily" || q.Get("vs_currency") != "usd" {
			t.Fatalf("请求错误: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"prices":[[1700000000000,100.5],[1700086400000,101]],"market_caps":[],"total_volumes":[]}`))
	}))
	defer srv.Close()

	points, err := newTestClient(srv.URL).MarketChart(context.Background(), "bitcoin", "usd", 0)
	if err != nil {
		t.Fatalf("MarketChart 不应失败: %v", err)
	}
	if len(points) != 2 || points[0].Price != 100.5 || points[1].Time.Sub(points[0].Time) != 24*time.Hour {
		t.Fatalf("价格序列解析错误: %#v", points)
	}
}

func TestSearchDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "bit coin" {
			t.Fatalf("查询词错误: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","name":"Bitcoin","symbol":"BTC","thumb":"t.png","market_cap_rank":1}],"exchanges":[]}`))
	}))
	defer srv.Close()

	hits, err := newTestClient(srv.URL).Search(context.Background(), "bit coin")
	if err != nil {
		t.Fatalf("Search 不应失败: %v", err)
	}
	if len(hits) != 1 || hits[0].Thumb != "t.png" || *hits[0].MarketCapRank != 1 {
		t.Fatalf("搜索结果解析错误: %#v", hits)
	}
}
