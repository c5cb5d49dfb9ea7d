package chart

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"coindash/internal/market"
)

// ErrTooFewPoints is returned when a series cannot be drawn as a line.
var ErrTooFewPoints = errors.New("chart needs at least two price points")

const (
	defaultWidth  = 1024
	defaultHeight = 400
)

// Options describe one price chart.
type Options struct {
	AssetID  string
	Currency market.Currency
	Width    int
	Height   int
}

// Label is the series name shown in the legend.
func Label(id string, cur market.Currency) string {
	return fmt.Sprintf("%s price (%s)", id, strings.ToUpper(cur.String()))
}

// RenderPNG draws the price series as a PNG line chart into w.
func RenderPNG(w io.Writer, points []market.PricePoint, opts Options) error {
	if len(points) < 2 {
		return ErrTooFewPoints
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	lo, hi := points[0].Price, points[0].Price
	for i, p := range points {
		x[i] = p.Time
		y[i] = p.Price
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}

	yAxis := gochart.YAxis{
		Name: strings.ToUpper(opts.Currency.String()),
		ValueFormatter: func(v interface{}) string {
			return gochart.FloatValueFormatterWithFormat(v, "%.2f")
		},
	}
	if lo == hi {
		// go-chart rejects a zero-height range
		pad := max(hi*0.01, 1)
		yAxis.Range = &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}

	graph := gochart.Chart{
		Width:  width,
		Height: height,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatter,
		},
		YAxis: yAxis,
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    Label(opts.AssetID, opts.Currency),
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WriteCSV writes the series as date,price rows.
func WriteCSV(w io.Writer, points []market.PricePoint) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"time", "price"}); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			p.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
