package main

import (
	"context"
	"time"

	"github.com/johann/leptos-todo/internal/client"
	"github.com/johann/leptos-todo/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "todo",
	Short:         "Todo list client",
	Long:          "todo manages the todo list on a leptos-todo server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(clearCmd)
}

// connect loads the saved login and returns a client with a request timeout.
func connect(cmd *cobra.Command) (*client.Client, context.Context, context.CancelFunc, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := client.New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	return c, ctx, cancel, nil
}
