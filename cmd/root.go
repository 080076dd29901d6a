// Package cmd implements the harvest command-line interface. It provides the
// root command and the subcommands for crawling, exporting, and searching.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/crawl"
	"github.com/jonesrussell/harvest/cmd/export"
	"github.com/jonesrussell/harvest/cmd/index"
	"github.com/jonesrussell/harvest/cmd/search"
	"github.com/jonesrussell/harvest/cmd/sources"
)

// version is overridable at build time with -ldflags "-X ...cmd.version=".
var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "An incremental sitemap harvester",
	Long: `Harvest sweeps paginated sitemaps into a page store, revalidates
known pages with conditional requests, and exports the stored pages as a
cleaned text dataset.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so the config loader sees its variables.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("harvest version %s\n", version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(export.Command())
	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(sources.Command())
	rootCmd.AddCommand(index.Command())
}
