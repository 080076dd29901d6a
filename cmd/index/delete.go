package index

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
)

// newDeleteCommand creates the command that deletes an index by name. The
// deletion is destructive, so it asks for confirmation unless --force is
// given.
func newDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			name := args[0]

			if !force && !confirm(cmd, name) {
				fmt.Println("aborted")
				return nil
			}

			store, err := newStorage(deps)
			if err != nil {
				return err
			}

			if deleteErr := store.DeleteIndex(cmd.Context(), name); deleteErr != nil {
				return fmt.Errorf("delete index: %w", deleteErr)
			}

			fmt.Printf("index %s deleted\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

func confirm(cmd *cobra.Command, name string) bool {
	fmt.Printf("delete index %s? [y/N]: ", name)

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
