// Package export implements the export command that writes the stored pages
// out as a cleaned text dataset.
package export

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	"github.com/jonesrussell/harvest/internal/database"
	exportpkg "github.com/jonesrussell/harvest/internal/export"
	"github.com/jonesrussell/harvest/internal/storage"
	"github.com/jonesrussell/harvest/internal/urlfilter"
)

// Command returns the export command for use in the root command.
func Command() *cobra.Command {
	var (
		output   string
		minWords int
		index    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored pages as a cleaned text dataset",
		Long: `Export streams every stored page through the URL filter and the HTML
cleaner and writes the survivors as numbered text files plus an id-to-URL
registry. With --index each exported document is also indexed into
Elasticsearch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			cfg := deps.Config
			if cmd.Flags().Changed("output") {
				cfg.Export.OutputDir = output
			}
			if cmd.Flags().Changed("min-words") {
				cfg.Export.MinWords = minWords
			}
			if cmd.Flags().Changed("index") {
				cfg.Export.Index = index
				if index {
					cfg.Elasticsearch.Enabled = true
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := database.NewPostgresConnection(database.Config{
				Host:     cfg.Database.Host,
				Port:     cfg.Database.Port,
				User:     cfg.Database.User,
				Password: cfg.Database.Password,
				DBName:   cfg.Database.Database,
				SSLMode:  cfg.Database.SSLMode,
			})
			if err != nil {
				return fmt.Errorf("connect page store: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					deps.Logger.Error("close page store", "error", closeErr)
				}
			}()

			runLog := deps.Logger.With("run_id", uuid.NewString())

			indexer, err := newIndexer(deps)
			if err != nil {
				return err
			}

			exporter := exportpkg.New(
				database.NewPageRepository(db, cfg.Database.Table),
				urlfilter.New(cfg.Filter.Patterns...),
				indexer,
				runLog,
				cfg.ExportOptions(),
			)

			if _, runErr := exporter.Run(ctx); runErr != nil {
				return fmt.Errorf("export run: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output directory for the dataset")
	cmd.Flags().IntVar(&minWords, "min-words", 0, "minimum word count for an exported document")
	cmd.Flags().BoolVar(&index, "index", false, "also index exported documents into Elasticsearch")

	return cmd
}

// newIndexer builds the Elasticsearch indexer when indexing is requested. A
// nil indexer disables indexing in the exporter.
func newIndexer(deps common.CommandDeps) (exportpkg.DocumentIndexer, error) {
	cfg := deps.Config
	if !cfg.Export.Index {
		return nil, nil
	}
	if !cfg.Elasticsearch.Enabled {
		deps.Logger.Warn("export.index is set but elasticsearch is disabled, skipping indexing")
		return nil, nil
	}

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
