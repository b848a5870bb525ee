package main

import (
	"os"

	"github.com/johann/leptos-todo/internal/config"
	"github.com/johann/leptos-todo/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leptos-todo",
	Short: "Todo list server",
	Long: `leptos-todo serves the todo application and the site package next to it.

It reads LEPTOS_OUTPUT_NAME, LEPTOS_SITE_ROOT, LEPTOS_SITE_PKG_DIR,
LEPTOS_SITE_ADDR and LEPTOS_RELOAD_PORT at startup.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from TODO_LOG_LEVEL or info)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(tokenCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	name := logLevel
	if name == "" {
		name = os.Getenv("TODO_LOG_LEVEL")
	}
	if name == "" {
		name = "info"
	}
	level, err := config.ParseLevel(name)
	if err != nil {
		return err
	}
	logging.Setup(level)
	return nil
}
