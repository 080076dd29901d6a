package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/harvest/internal/logger"
)

// Default reader settings.
const (
	// DefaultTimeout bounds a single sitemap page request.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodySize caps a sitemap response body at 10 MiB.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// DefaultExtensions lists URL path suffixes that are never content pages.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	// Timeout for a single sitemap page request.
	Timeout time.Duration
	// UserAgent sent with each request.
	UserAgent string
	// MaxBodySize caps the response body read, in bytes.
	MaxBodySize int64
	// Extensions is the path-suffix denylist applied to parsed entries.
	Extensions []string
}

// Reader fetches one page of a source's sitemap at a time.
type Reader struct {
	client      *http.Client
	log         logger.Interface
	userAgent   string
	maxBodySize int64
	extensions  []string
}

// NewReader creates a sitemap reader. Zero config values fall back to the
// package defaults.
func NewReader(cfg ReaderConfig, log logger.Interface) *Reader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}

	return &Reader{
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
		extensions:  cfg.Extensions,
	}
}

// Fetch retrieves page N of the sitemap at sitemapURL and returns its usable
// entries. A non-200 status is the normal past-the-end probe outcome: it
// yields an empty result and no error. Transport failures are returned to the
// caller.
func (r *Reader) Fetch(ctx context.Context, sitemapURL string, page int) ([]Entry, error) {
	target, err := pageURL(sitemapURL, page)
	if err != nil {
		return nil, fmt.Errorf("sitemap page url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("sitemap new request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sitemap get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Debug("sitemap page unavailable",
			"url", target,
			"status", resp.StatusCode,
		)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("sitemap read body: %w", err)
	}

	entries, err := Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("sitemap %s: %w", target, err)
	}

	kept := r.filterExtensions(entries)
	r.log.Debug("sitemap page fetched",
		"url", target,
		"entries", len(entries),
		"kept", len(kept),
	)

	return kept, nil
}

// filterExtensions drops entries whose URL path ends in a denylisted
// extension.
func (r *Reader) filterExtensions(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if r.excluded(e.Loc) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (r *Reader) excluded(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range r.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// pageURL sets the page query parameter on the sitemap URL.
func pageURL(sitemapURL string, page int) (string, error) {
	u, err := url.Parse(sitemapURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
