package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"coindash/internal/chart"
)

// Export writes one asset's daily price history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.ID == "" {
		return errors.New("asset id must not be empty")
	}
	cur, err := a.currency(opts.Currency)
	if err != nil {
		return err
	}

	points, err := a.newLoader(a.newClient()).LoadPriceHistory(ctx, opts.ID, cur, opts.Days)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		a.Logger.Info().Str("id", opts.ID).Msg("no price history for export window")
		return nil
	}
	a.Logger.Info().Str("id", opts.ID).Int("points", len(points)).Msg("exporting price history")

	if opts.CSVPath != "" {
		if err := writeFile(opts.CSVPath, func(f *os.File) error { return chart.WriteCSV(f, points) }); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		chartOpts := chart.Options{
			AssetID:  opts.ID,
			Currency: cur,
			Width:    a.Config.Export.ChartWidth,
			Height:   a.Config.Export.ChartHeight,
		}
		if err := writeFile(opts.PNGPath, func(f *os.File) error { return chart.RenderPNG(f, points, chartOpts) }); err != nil {
			return err
		}
	}

	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
