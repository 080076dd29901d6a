package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default fetcher settings.
const (
	// DefaultRequestTimeout bounds a single page request.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultUserAgent is sent when none is configured.
	DefaultUserAgent = "Mozilla/5.0"
	// DefaultMaxBodySize caps a page response body at 10 MiB.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// FetchResponse is the result of one page request. On 304 the body is empty
// and was never read.
type FetchResponse struct {
	StatusCode int
	Body       string
}

// FetcherConfig configures a PageFetcher.
type FetcherConfig struct {
	// Timeout for a single page request.
	Timeout time.Duration
	// UserAgent sent with each request.
	UserAgent string
	// MaxBodySize caps the response body read, in bytes.
	MaxBodySize int64
}

// PageFetcher performs page GETs with optional conditional revalidation.
type PageFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// NewPageFetcher creates a page fetcher. Zero config values fall back to the
// package defaults.
func NewPageFetcher(cfg FetcherConfig) *PageFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	return &PageFetcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch GETs the URL. A non-zero ifModifiedSince is sent as an RFC 1123 GMT
// If-Modified-Since header. The body is not read on 304.
func (f *PageFetcher) Fetch(ctx context.Context, url string, ifModifiedSince time.Time) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("page new request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if !ifModifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", ifModifiedSince.UTC().Format(http.TimeFormat))
	}

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("page get %s: %w", url, doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &FetchResponse{StatusCode: resp.StatusCode}, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if readErr != nil {
		return nil, fmt.Errorf("page read body: %w", readErr)
	}

	return &FetchResponse{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
