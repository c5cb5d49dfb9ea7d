package cli

import (
	"github.com/spf13/cobra"

	"coindash/internal/app"
)

var (
	exportCurrency string
	exportDays     int
	exportPNGPath  string
	exportCSVPath  string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a coin's daily price history as CSV and/or PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			ID:       args[0],
			Currency: exportCurrency,
			Days:     exportDays,
			PNGPath:  exportPNGPath,
			CSVPath:  exportCSVPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCurrency, "currency", "", "Quote currency (defaults to config)")
	exportCmd.Flags().IntVar(&exportDays, "days", 0, "History window in days (defaults to config)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
