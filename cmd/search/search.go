// Package search implements the search command for querying exported page
// content in Elasticsearch.
package search

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	"github.com/jonesrussell/harvest/internal/storage"
)

const (
	// defaultSize is the number of results returned when no size is given.
	defaultSize = 10
	// idWidth truncates document ids so the table stays readable.
	idWidth = 12
	// previewWidth truncates document content in the result table.
	previewWidth = 100
)

// Command returns the search command for use in the root command.
func Command() *cobra.Command {
	var (
		query string
		size  int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search indexed page content",
		Long: `Search runs a match query against the indexed document content and
renders the results as a table.

Examples:
  harvest search -q "climate"
  harvest search -q "election results" -s 25`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			cfg := deps.Config

			client, err := storage.NewElasticsearchClient(storage.Config{
				Addresses: cfg.Elasticsearch.Addresses,
				Username:  cfg.Elasticsearch.Username,
				Password:  cfg.Elasticsearch.Password,
				APIKey:    cfg.Elasticsearch.APIKey,
				Index:     cfg.Elasticsearch.IndexName,
			})
			if err != nil {
				return fmt.Errorf("connect elasticsearch: %w", err)
			}
			store := storage.NewStorage(client, cfg.Elasticsearch.IndexName, deps.Logger)

			hits, err := store.Search(cmd.Context(), query, size)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			renderResults(hits, query)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query string to search for")
	cmd.Flags().IntVarP(&size, "size", "s", defaultSize, "number of results to return")
	if err := cmd.MarkFlagRequired("query"); err != nil {
		fmt.Fprintf(os.Stderr, "Error marking query flag as required: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// renderResults formats and displays the search hits in a rounded table.
func renderResults(hits []storage.Hit, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"ID", "Source", "URL", "Words", "Content Preview"})
	for _, hit := range hits {
		t.AppendRow(table.Row{
			truncate(hit.ID, idWidth),
			hit.Document.Source,
			hit.Document.URL,
			hit.Document.WordCount,
			truncate(collapse(hit.Document.Content), previewWidth),
		})
	}
	t.AppendFooter(table.Row{"Total", len(hits), fmt.Sprintf("Query: %s", query)})

	t.Render()
}

// collapse flattens whitespace runs so previews stay on one table row.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
