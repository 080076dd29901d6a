package index

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
)

// newListCommand creates the command that lists all indices in the cluster.
func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all indices in the cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			store, err := newStorage(deps)
			if err != nil {
				return err
			}

			names, err := store.ListIndices(cmd.Context())
			if err != nil {
				return fmt.Errorf("list indices: %w", err)
			}
			if len(names) == 0 {
				deps.Logger.Info("no indices found")
				return nil
			}

			renderIndices(names, store.Index())
			return nil
		},
	}
}

// renderIndices formats and displays the index names, marking the index the
// exporter writes to.
func renderIndices(names []string, configured string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Index", "Configured"})
	for _, name := range names {
		mark := ""
		if name == configured {
			mark = "*"
		}
		t.AppendRow(table.Row{name, mark})
	}

	t.Render()
}
