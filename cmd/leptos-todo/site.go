package main

import (
	"fmt"
	"io/fs"

	leptostodo "github.com/johann/leptos-todo"
	"github.com/johann/leptos-todo/internal/site"
	"github.com/spf13/cobra"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Site package operations",
}

var siteBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the site package",
	Long:  "Write the built-in site package under LEPTOS_SITE_ROOT, naming the bundle after LEPTOS_OUTPUT_NAME.",
	RunE:  runSiteBuild,
}

var siteOut string

func init() {
	siteBuildCmd.Flags().StringVar(&siteOut, "out", "", "Site root to write (default from LEPTOS_SITE_ROOT)")
	siteCmd.AddCommand(siteBuildCmd)
}

func runSiteBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}
	if siteOut != "" {
		cfg.SiteRoot = siteOut
	}

	files, err := buildSite(cfg.Layout())
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f)
	}
	fmt.Printf("Site package written to %s (%d files)\n", cfg.SiteRoot, len(files))
	return nil
}

func buildSite(l site.Layout) ([]string, error) {
	src, err := fs.Sub(leptostodo.Site, "site")
	if err != nil {
		return nil, err
	}
	files, err := site.Build(src, l)
	if err != nil {
		return nil, fmt.Errorf("failed to build site: %w", err)
	}
	return files, nil
}
