package index

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
)

// newCreateCommand creates the command that ensures the configured document
// index exists with its mapping.
func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the document index with its mapping",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			store, err := newStorage(deps)
			if err != nil {
				return err
			}

			if ensureErr := store.EnsureIndex(cmd.Context()); ensureErr != nil {
				return fmt.Errorf("create index: %w", ensureErr)
			}

			fmt.Printf("index %s ready\n", store.Index())
			return nil
		},
	}
}
