package sources

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	sourcespkg "github.com/jonesrussell/harvest/internal/sources"
)

// newValidateCommand creates the command that checks the source list and
// exits non-zero when any entry is invalid.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured sources",
		Long: `Validate loads the source list and reports every invalid entry. The
command exits non-zero when the list is missing, empty, or contains an
invalid source.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			list, err := sourcespkg.Load(deps.Config.Sources.File)
			if err != nil {
				return fmt.Errorf("invalid sources: %w", err)
			}

			fmt.Printf("%d sources valid\n", len(list))
			return nil
		},
	}
}
