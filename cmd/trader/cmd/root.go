package cmd

import (
	"github.com/rustyeddy/papertrader/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "A paper-trading ledger for crypto spot markets",
	Long: `Trader runs a virtual spot account against scripted or live prices.

It provides tools for:
  - Filling MARKET orders against a paper balance sheet
  - FIFO position accounting with realized and unrealized P&L
  - Stop loss and take profit management (fixed, trailing, ATR, breakeven)
  - Trade and equity journals in CSV or SQLite
  - Org-mode session reports

Complete documentation is available at https://github.com/rustyeddy/papertrader`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("log-level") {
			logger.SetLevel(logLevel)
		}
	},
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}
