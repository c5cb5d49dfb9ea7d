package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"coindash/internal/market"
)

func series(prices ...float64) []market.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]market.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = market.PricePoint{Time: start.Add(time.Duration(i) * 24 * time.Hour), Price: p}
	}
	return points
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, series(100, 105.5, 98), Options{AssetID: "bitcoin", Currency: "usd", Width: 320, Height: 200}); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("输出应为 PNG")
	}
}

func TestRenderPNGFlatSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, series(1, 1, 1), Options{AssetID: "tether", Currency: "usd"}); err != nil {
		t.Fatalf("水平序列也应能渲染: %v", err)
	}
}

func TestRenderPNGTooFewPoints(t *testing.T) {
	if err := RenderPNG(&bytes.Buffer{}, series(1), Options{}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("单点应返回 ErrTooFewPoints, 实际 %v", err)
	}
}

func TestLabel(t *testing.T) {
	if got := Label("bitcoin", "eur"); got != "bitcoin price (EUR)" {
		t.Fatalf("图例错误: %s", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, series(100, 101.25)); err != nil {
		t.Fatalf("写 CSV 失败: %v", err)
	}
	want := "time,price\n2024-01-01T00:00:00Z,100\n2024-01-02T00:00:00Z,101.25\n"
	if got := buf.String(); got != want {
		t.Fatalf("CSV 内容错误:\n%s", strings.TrimSpace(got))
	}
}
