package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the resolved LEPTOS_* settings",
	Long:  "Print the resolved LEPTOS_* settings as shell exports, for copying next to a deployed binary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServerConfig(cmd)
		if err != nil {
			return err
		}
		for _, line := range cfg.Exports() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
