package cli

import (
	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Manage the persisted favorites",
}

var favoriteToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add or remove a coin from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ToggleFavorite(cmd.Context(), args[0])
	},
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite coin ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListFavorites(cmd.Context())
	},
}

func init() {
	favoriteCmd.AddCommand(favoriteToggleCmd)
	favoriteCmd.AddCommand(favoriteListCmd)
}
