package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/johann/leptos-todo/internal/server"
	"github.com/johann/leptos-todo/internal/site"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Serve in development mode with live reload",
	Long: `Serve the todo application and watch LEPTOS_SITE_ROOT for changes.

Pages open a websocket to LEPTOS_RELOAD_PORT. Stylesheet edits are swapped
in place; any other change reloads the page. A missing site package is
written from the built-in default first.`,
	RunE: runWatch,
}

var watchReloadPort int

func init() {
	addServeFlags(watchCmd)
	watchCmd.Flags().IntVar(&watchReloadPort, "reload-port", 0, "Live reload port (default from LEPTOS_RELOAD_PORT)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}

	layout := cfg.Layout()
	if err := layout.Verify(); errors.Is(err, site.ErrMissingRoot) || errors.Is(err, site.ErrMissingPkg) {
		files, err := buildSite(layout)
		if err != nil {
			return err
		}
		slog.Info("Wrote site package", "root", layout.Root, "files", len(files))
	}

	srv, err := server.New(cfg, server.Options{Watch: true})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	return srv.Run(cmd.Context())
}
