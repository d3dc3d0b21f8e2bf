package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "englevel",
	Short: "Adaptive English placement test",
	Long: "englevel runs an adaptive grammar assessment and recommends a CEFR level (A1-C2)\n" +
		"with a confidence percentage.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides ENGLEVEL_DB and config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(versionCmd)
}
