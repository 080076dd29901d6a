package export

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/harvest/internal/domain"
	"github.com/jonesrussell/harvest/internal/logger"
	"github.com/jonesrussell/harvest/internal/storage"
)

// Default export settings.
const (
	// DefaultOutputDir receives the numbered text files.
	DefaultOutputDir = "dataset_txt"
	// DefaultRegistryName is the id-to-URL registry file inside the
	// output directory.
	DefaultRegistryName = "urls.txt"
	// DefaultMinWords drops documents with fewer words after cleaning.
	DefaultMinWords = 10
	// DefaultProgressEvery logs progress after this many exported
	// documents.
	DefaultProgressEvery = 500

	dirPerm  = 0755
	filePerm = 0644
)

// PageIterator streams stored pages in a stable order.
type PageIterator interface {
	Each(ctx context.Context, fn func(*domain.Page) error) error
}

// URLAllower reports whether a URL belongs in the corpus. The crawl and the
// export share one filter so denylisted pages stored by older runs still
// stay out of the output.
type URLAllower interface {
	Allow(url string) bool
}

// DocumentIndexer mirrors the exported corpus into a search index.
type DocumentIndexer interface {
	EnsureIndex(ctx context.Context) error
	IndexDocument(ctx context.Context, id string, doc *storage.Document) error
}

// Config controls an export run.
type Config struct {
	// OutputDir is removed and recreated on every run.
	OutputDir string
	// RegistryName is the registry file name inside OutputDir.
	RegistryName string
	// MinWords drops cleaned documents shorter than this.
	MinWords int
	// ProgressEvery logs progress after this many exported documents.
	ProgressEvery int
}

// Summary reports the aggregate result of one export run.
type Summary struct {
	Exported int64
	Filtered int64
	TooShort int64
	Failed   int64
	Indexed  int64
	Duration time.Duration
}

// Exporter writes the cleaned corpus to disk and, when an indexer is
// configured, to Elasticsearch.
type Exporter struct {
	store   PageIterator
	filter  URLAllower
	cleaner *Cleaner
	indexer DocumentIndexer
	log     logger.Interface
	cfg     Config
}

// New creates an exporter. A nil indexer disables search indexing. Zero
// config values fall back to the package defaults.
func New(
	store PageIterator,
	filter URLAllower,
	indexer DocumentIndexer,
	log logger.Interface,
	cfg Config,
) *Exporter {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.RegistryName == "" {
		cfg.RegistryName = DefaultRegistryName
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = DefaultMinWords
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}

	return &Exporter{
		store:   store,
		filter:  filter,
		cleaner: NewCleaner(),
		indexer: indexer,
		log:     log,
		cfg:     cfg,
	}
}

// Run streams every stored page through the filter and cleaner and writes
// the survivors as numbered text files plus the registry. Document ids are
// assigned sequentially from zero to exported documents only, so the corpus
// has no gaps.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := e.prepareOutputDir(); err != nil {
		return nil, err
	}

	if e.indexer != nil {
		if err := e.indexer.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("export: ensure index: %w", err)
		}
	}

	registry, err := os.Create(filepath.Join(e.cfg.OutputDir, e.cfg.RegistryName))
	if err != nil {
		return nil, fmt.Errorf("export: create registry: %w", err)
	}
	defer registry.Close()

	registryWriter := bufio.NewWriter(registry)
	summary := &Summary{}
	docID := 0

	err = e.store.Each(ctx, func(page *domain.Page) error {
		if !e.filter.Allow(page.URL) {
			summary.Filtered++
			return nil
		}

		doc, cleanErr := e.cleaner.Clean(page.RawHTML)
		if cleanErr != nil {
			summary.Failed++
			e.log.Warn("cleaning failed", "url", page.URL, "error", cleanErr.Error())
			return nil
		}
		if doc.Words < e.cfg.MinWords {
			summary.TooShort++
			return nil
		}

		name := filepath.Join(e.cfg.OutputDir, fmt.Sprintf("%d.txt", docID))
		if writeErr := os.WriteFile(name, []byte(doc.Text), filePerm); writeErr != nil {
			summary.Failed++
			e.log.Error("document write failed", "url", page.URL, "error", writeErr.Error())
			return nil
		}

		if _, regErr := fmt.Fprintf(registryWriter, "%d\t%s\n", docID, page.URL); regErr != nil {
			return fmt.Errorf("write registry: %w", regErr)
		}

		e.index(ctx, page, doc, summary)

		docID++
		summary.Exported++
		if summary.Exported%int64(e.cfg.ProgressEvery) == 0 {
			e.log.Info("export progress", "exported", summary.Exported)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export: iterate pages: %w", err)
	}

	if flushErr := registryWriter.Flush(); flushErr != nil {
		return nil, fmt.Errorf("export: flush registry: %w", flushErr)
	}

	summary.Duration = time.Since(start)
	e.log.Info("export finished",
		"duration", summary.Duration.String(),
		"exported", summary.Exported,
		"filtered", summary.Filtered,
		"too_short", summary.TooShort,
		"failed", summary.Failed,
		"indexed", summary.Indexed,
		"output_dir", e.cfg.OutputDir,
	)

	return summary, nil
}

// prepareOutputDir recreates the output directory so every run starts from
// a clean corpus.
func (e *Exporter) prepareOutputDir() error {
	if err := os.RemoveAll(e.cfg.OutputDir); err != nil {
		return fmt.Errorf("export: clear output dir: %w", err)
	}
	if err := os.MkdirAll(e.cfg.OutputDir, dirPerm); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}

	return nil
}

// index mirrors one cleaned document into the search index. Index failures
// are logged and do not fail the export.
func (e *Exporter) index(ctx context.Context, page *domain.Page, doc *Document, summary *Summary) {
	if e.indexer == nil {
		return
	}

	indexed := &storage.Document{
		URL:       page.URL,
		Source:    page.Source,
		Content:   doc.Text,
		WordCount: doc.Words,
		FetchedAt: page.FetchedAt,
	}

	if err := e.indexer.IndexDocument(ctx, documentID(page.URL), indexed); err != nil {
		e.log.Warn("document index failed", "url", page.URL, "error", err.Error())
		return
	}

	summary.Indexed++
}

// documentID returns the hex-encoded SHA-256 digest of the URL, used as a
// stable index document id.
func documentID(url string) string {
	digest := sha256.Sum256([]byte(url))
	return hex.EncodeToString(digest[:])
}
