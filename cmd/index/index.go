// Package index implements the commands for managing the Elasticsearch
// document index.
package index

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	"github.com/jonesrussell/harvest/internal/storage"
)

// Command returns the index parent command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the Elasticsearch document index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

// newStorage connects to Elasticsearch using the configured addresses and
// returns the storage bound to the configured index.
func newStorage(deps common.CommandDeps) (*storage.Storage, error) {
	cfg := deps.Config

	client, err := storage.NewElasticsearchClient(storage.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		APIKey:    cfg.Elasticsearch.APIKey,
		Index:     cfg.Elasticsearch.IndexName,
	})
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}

	return storage.NewStorage(client, cfg.Elasticsearch.IndexName, deps.Logger), nil
}
