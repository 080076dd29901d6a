package sources

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	sourcespkg "github.com/jonesrussell/harvest/internal/sources"
)

// newListCommand creates the command that renders the configured sources as
// a table.
func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			list, err := sourcespkg.Load(deps.Config.Sources.File)
			if err != nil {
				return fmt.Errorf("load sources: %w", err)
			}

			renderSources(list)
			return nil
		},
	}
}

// renderSources formats and displays the sources in a table.
func renderSources(list []sourcespkg.Source) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "Sitemap"})
	for _, s := range list {
		t.AppendRow(table.Row{s.Name, s.Sitemap})
	}

	t.Render()
}
