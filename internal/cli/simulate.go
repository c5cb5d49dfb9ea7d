package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"coindash/internal/app"
)

var (
	simulateCurrency string
	simulatePrice    float64
	simulateChange   float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert <id>",
	Short: "模拟一次收藏资产异动并触发告警",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice < 0 {
			return errors.New("--price 不能为负数")
		}

		opts := app.SimulateOptions{
			ID:        args[0],
			Currency:  simulateCurrency,
			Price:     simulatePrice,
			ChangePct: simulateChange,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateCurrency, "currency", "", "计价币种")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "模拟价格")
	simulateCmd.Flags().Float64Var(&simulateChange, "change", 0, "模拟 24h 变化百分比")
}
