// Package crawl implements the crawl command that sweeps the configured
// sitemaps into the page store.
package crawl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/cmd/common"
	"github.com/jonesrussell/harvest/internal/config"
	"github.com/jonesrussell/harvest/internal/crawler"
	"github.com/jonesrussell/harvest/internal/database"
	"github.com/jonesrussell/harvest/internal/logger"
	"github.com/jonesrussell/harvest/internal/metrics"
	"github.com/jonesrussell/harvest/internal/sitemap"
	"github.com/jonesrussell/harvest/internal/sources"
	"github.com/jonesrussell/harvest/internal/urlfilter"
)

// Harvester holds the per-process pieces of a crawl: the store connection,
// the sitemap reader, and the page fetcher. Each run builds its own crawl
// loop with fresh metrics and a run id, so scheduled runs stay independent.
type Harvester struct {
	cfg     *config.Config
	log     logger.Interface
	db      *sqlx.DB
	store   *database.PageRepository
	reader  *sitemap.Reader
	fetcher *crawler.PageFetcher
	filter  *urlfilter.Filter
	delay   crawler.DelayPolicy
	sources []crawler.Source
}

// NewHarvester loads the source list, connects the page store, and builds
// the crawl dependencies from config. The caller closes the returned
// harvester.
func NewHarvester(ctx context.Context, deps common.CommandDeps) (*Harvester, error) {
	cfg := deps.Config
	log := deps.Logger

	list, err := sources.Load(cfg.Sources.File)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	crawlSources := make([]crawler.Source, 0, len(list))
	for _, s := range list {
		crawlSources = append(crawlSources, crawler.Source{Name: s.Name, Sitemap: s.Sitemap})
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect page store: %w", err)
	}

	store := database.NewPageRepository(db, cfg.Database.Table)
	if schemaErr := store.EnsureSchema(ctx); schemaErr != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", schemaErr)
	}

	return &Harvester{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: store,
		reader: sitemap.NewReader(sitemap.ReaderConfig{
			Timeout:     cfg.Crawl.SitemapTimeout,
			UserAgent:   cfg.Crawl.UserAgent,
			MaxBodySize: cfg.Crawl.MaxBodySize,
			Extensions:  cfg.Crawl.Extensions,
		}, log),
		fetcher: crawler.NewPageFetcher(crawler.FetcherConfig{
			Timeout:     cfg.Crawl.RequestTimeout,
			UserAgent:   cfg.Crawl.UserAgent,
			MaxBodySize: cfg.Crawl.MaxBodySize,
		}),
		filter:  urlfilter.New(cfg.Filter.Patterns...),
		delay:   crawler.NewRandomDelay(cfg.Crawl.Delay),
		sources: crawlSources,
	}, nil
}

// Close releases the store connection.
func (h *Harvester) Close() error {
	return h.db.Close()
}

// Run performs one full crawl pass.
func (h *Harvester) Run(ctx context.Context) error {
	runLog := h.log.With("run_id", uuid.NewString())
	loop := crawler.New(
		h.store,
		h.reader,
		h.fetcher,
		h.filter,
		h.delay,
		metrics.NewMetrics(),
		runLog,
		h.sources,
		crawler.Config{
			MaxPages:      h.cfg.Crawl.MaxPages,
			PageStart:     h.cfg.Crawl.PageStart,
			PageEnd:       h.cfg.Crawl.PageEnd,
			MinRecrawlAge: h.cfg.Crawl.MinRecrawlAge,
		},
	)

	if _, err := loop.Run(ctx); err != nil {
		return fmt.Errorf("crawl run: %w", err)
	}
	return nil
}

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var (
		schedule string
		maxPages int64
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest sitemap pages into the page store",
		Long: `Crawl sweeps every configured source's paginated sitemap, fetches new
pages, revalidates known ones with If-Modified-Since, and stops when the
store reaches the configured page ceiling.

With --schedule the harvest runs on a cron schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}
			if cmd.Flags().Changed("max-pages") {
				deps.Config.Crawl.MaxPages = maxPages
			}
			if cmd.Flags().Changed("delay") {
				deps.Config.Crawl.Delay = delay
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			harvester, err := NewHarvester(ctx, deps)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := harvester.Close(); closeErr != nil {
					deps.Logger.Error("close page store", "error", closeErr)
				}
			}()

			if schedule != "" {
				return runScheduled(ctx, deps.Logger, harvester, schedule)
			}
			return harvester.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule to run on until interrupted")
	cmd.Flags().Int64Var(&maxPages, "max-pages", 0, "override the stored page ceiling (0 disables it)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "override the politeness delay")

	return cmd
}
