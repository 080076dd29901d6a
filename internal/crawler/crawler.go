// Package crawler walks source sitemaps page by page and keeps the page
// store current, fetching new URLs, revalidating known ones with
// If-Modified-Since, and stopping once the store reaches its size ceiling.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/harvest/internal/domain"
	"github.com/jonesrussell/harvest/internal/logger"
	"github.com/jonesrussell/harvest/internal/metrics"
	"github.com/jonesrussell/harvest/internal/sitemap"
)

const (
	// DefaultMaxPages is the target number of stored pages across all sources.
	DefaultMaxPages = 15000

	// DefaultPageStart and DefaultPageEnd bound the sitemap page sweep.
	DefaultPageStart = 1
	DefaultPageEnd   = 100
)

// PageStore is the slice of the page repository the crawler needs.
type PageStore interface {
	Count(ctx context.Context) (int64, error)
	GetByURL(ctx context.Context, url string) (*domain.Page, error)
	Upsert(ctx context.Context, page *domain.Page) (bool, error)
}

// SitemapReader fetches one page of a paginated sitemap.
type SitemapReader interface {
	Fetch(ctx context.Context, sitemapURL string, page int) ([]sitemap.Entry, error)
}

// Fetcher retrieves a single page body, optionally conditioned on a
// previous fetch time.
type Fetcher interface {
	Fetch(ctx context.Context, url string, ifModifiedSince time.Time) (*FetchResponse, error)
}

// URLAllower reports whether a URL should be harvested at all.
type URLAllower interface {
	Allow(url string) bool
}

// Source identifies one site to harvest.
type Source struct {
	Name    string
	Sitemap string
}

// Outcome classifies what happened to a single sitemap entry.
type Outcome int

const (
	// OutcomeStoredNew means the page was fetched and inserted.
	OutcomeStoredNew Outcome = iota
	// OutcomeStoredUpdated means the page was fetched and replaced an
	// existing row.
	OutcomeStoredUpdated
	// OutcomeUnchanged means the server answered 304 Not Modified.
	OutcomeUnchanged
	// OutcomeSkipped means the stored copy was fresh enough to leave alone.
	OutcomeSkipped
	// OutcomeFiltered means the URL filter rejected the entry.
	OutcomeFiltered
	// OutcomeFailed means the fetch or store errored.
	OutcomeFailed
)

// Config controls a crawl run.
type Config struct {
	// MaxPages is the store size at which the run stops. Zero or negative
	// disables the ceiling.
	MaxPages int64

	// PageStart and PageEnd bound the sitemap page numbers swept per source.
	PageStart int
	PageEnd   int

	// MinRecrawlAge skips entries whose stored copy is younger than this.
	// Zero disables skipping and every known URL is revalidated.
	MinRecrawlAge time.Duration
}

// Summary reports the aggregate result of one crawl run.
type Summary struct {
	StartCount    int64
	StoredNew     int64
	StoredUpdated int64
	Unchanged     int64
	Skipped       int64
	Filtered      int64
	Failed        int64
	SitemapErrors int64
	Duration      time.Duration
}

// Crawler drives a full harvest pass over the configured sources.
type Crawler struct {
	store    PageStore
	sitemaps SitemapReader
	fetcher  Fetcher
	filter   URLAllower
	delay    DelayPolicy
	metrics  *metrics.Metrics
	log      logger.Interface
	sources  []Source
	cfg      Config
}

// New creates a crawler over the given sources.
func New(
	store PageStore,
	sitemaps SitemapReader,
	fetcher Fetcher,
	filter URLAllower,
	delay DelayPolicy,
	met *metrics.Metrics,
	log logger.Interface,
	sources []Source,
	cfg Config,
) *Crawler {
	if cfg.PageStart <= 0 {
		cfg.PageStart = DefaultPageStart
	}
	if cfg.PageEnd < cfg.PageStart {
		cfg.PageEnd = cfg.PageStart
	}
	if delay == nil {
		delay = NoDelay{}
	}

	return &Crawler{
		store:    store,
		sitemaps: sitemaps,
		fetcher:  fetcher,
		filter:   filter,
		delay:    delay,
		metrics:  met,
		log:      log,
		sources:  sources,
		cfg:      cfg,
	}
}

// Run sweeps every source's sitemap pages in order until the page window is
// exhausted, the store ceiling is reached, or the context is cancelled.
// Only newly inserted pages advance the ceiling counter, so updates to
// already-stored URLs never starve a partially filled store.
func (c *Crawler) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	total, err := c.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawler: count pages: %w", err)
	}

	summary := &Summary{StartCount: total}

	if c.ceilingReached(total) {
		c.log.Info("page store already at target, nothing to do",
			"count", total,
			"max_pages", c.cfg.MaxPages,
		)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	c.log.Info("starting crawl",
		"sources", len(c.sources),
		"stored", total,
		"max_pages", c.cfg.MaxPages,
		"page_start", c.cfg.PageStart,
		"page_end", c.cfg.PageEnd,
	)

sweep:
	for page := c.cfg.PageStart; page <= c.cfg.PageEnd; page++ {
		for _, source := range c.sources {
			if ctx.Err() != nil {
				break sweep
			}
			if c.ceilingReached(total) {
				break sweep
			}

			entries, fetchErr := c.sitemaps.Fetch(ctx, source.Sitemap, page)
			if fetchErr != nil {
				summary.SitemapErrors++
				c.metrics.IncSitemapError()
				c.log.Warn("sitemap page fetch failed",
					"source", source.Name,
					"page", page,
					"error", fetchErr.Error(),
				)
				continue
			}
			if len(entries) == 0 {
				continue
			}

			for _, entry := range entries {
				if ctx.Err() != nil {
					break sweep
				}
				if c.ceilingReached(total) {
					break sweep
				}

				outcome, requested := c.processEntry(ctx, source, entry)
				c.record(summary, outcome)
				if outcome == OutcomeStoredNew {
					total++
				}
				if requested {
					c.delay.Wait(ctx)
				}
			}
		}
	}

	summary.Duration = time.Since(start)
	c.log.Info("crawl finished",
		"duration", summary.Duration.String(),
		"stored_new", summary.StoredNew,
		"stored_updated", summary.StoredUpdated,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"filtered", summary.Filtered,
		"failed", summary.Failed,
		"sitemap_errors", summary.SitemapErrors,
		"total", total,
	)

	return summary, nil
}

// processEntry decides what to do with one sitemap entry and carries it
// out. The second return value reports whether an HTTP request was made,
// which is what the politeness delay keys on.
func (c *Crawler) processEntry(
	ctx context.Context,
	source Source,
	entry sitemap.Entry,
) (Outcome, bool) {
	if c.filter != nil && !c.filter.Allow(entry.Loc) {
		c.metrics.IncFiltered()
		return OutcomeFiltered, false
	}

	prev, err := c.store.GetByURL(ctx, entry.Loc)
	if err != nil && !errors.Is(err, domain.ErrPageNotFound) {
		c.metrics.IncFailed()
		c.log.Error("page lookup failed",
			"url", entry.Loc,
			"error", err.Error(),
		)
		return OutcomeFailed, false
	}

	plan := Decide(prev, c.cfg.MinRecrawlAge, time.Now())
	if plan.Action == ActionSkip {
		c.metrics.IncSkipped()
		return OutcomeSkipped, false
	}

	c.metrics.IncRequest()
	resp, err := c.fetcher.Fetch(ctx, entry.Loc, plan.LastFetched)
	if err != nil {
		c.metrics.IncFailed()
		c.log.Warn("page fetch failed",
			"source", source.Name,
			"url", entry.Loc,
			"error", err.Error(),
		)
		return OutcomeFailed, true
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.storePage(ctx, source, entry.Loc, resp.Body), true
	case http.StatusNotModified:
		c.metrics.IncUnchanged()
		return OutcomeUnchanged, true
	default:
		c.metrics.IncFailed()
		c.log.Warn("page fetch returned unexpected status",
			"source", source.Name,
			"url", entry.Loc,
			"status", resp.StatusCode,
		)
		return OutcomeFailed, true
	}
}

// storePage upserts a freshly fetched body and classifies the write.
func (c *Crawler) storePage(
	ctx context.Context,
	source Source,
	url, body string,
) Outcome {
	page := &domain.Page{
		URL:       url,
		RawHTML:   body,
		Source:    source.Name,
		FetchedAt: time.Now().UTC(),
	}

	created, err := c.store.Upsert(ctx, page)
	if err != nil {
		c.metrics.IncFailed()
		c.log.Error("page store failed",
			"url", url,
			"error", err.Error(),
		)
		return OutcomeFailed
	}

	if created {
		c.metrics.IncStoredNew()
		return OutcomeStoredNew
	}
	c.metrics.IncStoredUpdated()
	return OutcomeStoredUpdated
}

func (c *Crawler) record(summary *Summary, outcome Outcome) {
	switch outcome {
	case OutcomeStoredNew:
		summary.StoredNew++
	case OutcomeStoredUpdated:
		summary.StoredUpdated++
	case OutcomeUnchanged:
		summary.Unchanged++
	case OutcomeSkipped:
		summary.Skipped++
	case OutcomeFiltered:
		summary.Filtered++
	case OutcomeFailed:
		summary.Failed++
	}
}

func (c *Crawler) ceilingReached(total int64) bool {
	return c.cfg.MaxPages > 0 && total >= c.cfg.MaxPages
}
