package main

import (
	"fmt"

	"github.com/johann/leptos-todo/internal/config"
	"github.com/johann/leptos-todo/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the todo server",
	Long:  "Start the todo server in release mode. The site package must already exist under LEPTOS_SITE_ROOT.",
	RunE:  runServe,
}

var (
	serveAddr        string
	serveDBPath      string
	serveMetricsPort int
	serveTitle       string
)

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from LEPTOS_SITE_ADDR)")
	cmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (default from TODO_DB_PATH)")
	cmd.Flags().IntVar(&serveMetricsPort, "metrics-port", 0, "Port for Prometheus metrics (default from TODO_METRICS_PORT, disabled if 0)")
	cmd.Flags().StringVar(&serveTitle, "title", "", "Page title (default from TODO_TITLE)")
}

// loadServerConfig reads the environment, then applies the flags the user
// set explicitly.
func loadServerConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.SiteAddr = serveAddr
	}
	if flags.Changed("db") {
		cfg.DBPath = serveDBPath
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort = serveMetricsPort
	}
	if flags.Changed("title") {
		cfg.Title = serveTitle
	}
	if flags.Changed("reload-port") {
		cfg.ReloadPort = watchReloadPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Options{})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	return srv.Run(cmd.Context())
}
