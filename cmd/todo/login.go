package main

import (
	"context"
	"fmt"
	"time"

	"github.com/johann/leptos-todo/internal/client"
	"github.com/johann/leptos-todo/internal/config"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [server-url]",
	Short: "Login to a todo server",
	Long:  "Login to a todo server. Token is optional when the server does not set TODO_API_TOKEN.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var loginToken string

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Authentication token for changes")
}

func runLogin(cmd *cobra.Command, args []string) error {
	serverURL := args[0]

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ServerURL = serverURL
	if loginToken != "" {
		cfg.Token = loginToken
	}

	c, err := client.New(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("server %s is not reachable: %w", serverURL, err)
	}

	if err := config.SaveClient(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if loginToken != "" {
		fmt.Printf("Logged in to %s with authentication token\n", serverURL)
	} else {
		fmt.Printf("Logged in to %s (no token provided)\n", serverURL)
	}

	return nil
}
