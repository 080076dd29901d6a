// Package sources implements the commands for inspecting the configured
// sitemap sources.
package sources

import (
	"github.com/spf13/cobra"
)

// Command returns the sources parent command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage sitemap sources",
		Long:  `Inspect and validate the sitemap sources configured for harvesting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}
