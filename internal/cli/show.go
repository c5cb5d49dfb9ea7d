package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coindash/internal/app"
)

var (
	topCurrency  string
	topSort      string
	topFavorites bool
	topLimit     int

	detailCurrency string
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the top coins by market cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		if topLimit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}

		opts := app.TopOptions{
			Currency:      topCurrency,
			Sort:          topSort,
			FavoritesOnly: topFavorites,
			Limit:         topLimit,
		}
		return getApp().Top(cmd.Context(), opts)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search coins by name or symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Search(cmd.Context(), strings.Join(args, " "))
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail <id>",
	Short: "Print the details of one coin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Detail(cmd.Context(), args[0], detailCurrency)
	},
}

func init() {
	topCmd.Flags().StringVar(&topCurrency, "currency", "", "Quote currency (defaults to config)")
	topCmd.Flags().StringVar(&topSort, "sort", "", "Sort key, e.g. price_asc (defaults to config)")
	topCmd.Flags().BoolVar(&topFavorites, "favorites", false, "Only show favorites")
	topCmd.Flags().IntVar(&topLimit, "limit", 0, "Number of coins to display (0 = all)")

	detailCmd.Flags().StringVar(&detailCurrency, "currency", "", "Quote currency (defaults to config)")
}
