package crawler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/harvest/internal/crawler"
)

const fetcherTestAgent = "HarvestBot/1.0"

// newConditionalServer records the headers of the last request and answers
// with the given status and body.
func newConditionalServer(t *testing.T, statusCode int, body string) (*httptest.Server, *http.Header) {
	t.Helper()

	var lastHeader http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastHeader = r.Header.Clone()
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(server.Close)

	return server, &lastHeader
}

func TestPageFetcherSendsUserAgent(t *testing.T) {
	t.Parallel()

	server, header := newConditionalServer(t, http.StatusOK, "<html></html>")

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{UserAgent: fetcherTestAgent})

	resp, err := fetcher.Fetch(context.Background(), server.URL, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := header.Get("User-Agent"); got != fetcherTestAgent {
		t.Errorf("User-Agent = %q, want %q", got, fetcherTestAgent)
	}
	if got := header.Get("If-Modified-Since"); got != "" {
		t.Errorf("If-Modified-Since sent on unconditional fetch: %q", got)
	}
}

func TestPageFetcherSendsIfModifiedSince(t *testing.T) {
	t.Parallel()

	server, header := newConditionalServer(t, http.StatusOK, "<html></html>")

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{})
	since := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	if _, err := fetcher.Fetch(context.Background(), server.URL, since); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Sat, 15 Jun 2024 10:00:00 GMT"
	if got := header.Get("If-Modified-Since"); got != want {
		t.Errorf("If-Modified-Since = %q, want %q", got, want)
	}
}

func TestPageFetcherConvertsTimestampToGMT(t *testing.T) {
	t.Parallel()

	server, header := newConditionalServer(t, http.StatusOK, "")

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{})
	zone := time.FixedZone("UTC+2", 2*60*60)
	since := time.Date(2024, 6, 15, 12, 0, 0, 0, zone)

	if _, err := fetcher.Fetch(context.Background(), server.URL, since); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Sat, 15 Jun 2024 10:00:00 GMT"
	if got := header.Get("If-Modified-Since"); got != want {
		t.Errorf("If-Modified-Since = %q, want %q", got, want)
	}
}

func TestPageFetcherNotModified(t *testing.T) {
	t.Parallel()

	server, _ := newConditionalServer(t, http.StatusNotModified, "")

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{})
	since := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	resp, err := fetcher.Fetch(context.Background(), server.URL, since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotModified)
	}
	if resp.Body != "" {
		t.Errorf("body on 304 = %q, want empty", resp.Body)
	}
}

func TestPageFetcherReturnsBody(t *testing.T) {
	t.Parallel()

	const body = "<html><body>hello</body></html>"

	server, _ := newConditionalServer(t, http.StatusOK, body)

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{})

	resp, err := fetcher.Fetch(context.Background(), server.URL, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Body != body {
		t.Errorf("body = %q, want %q", resp.Body, body)
	}
}

func TestPageFetcherCapsBodySize(t *testing.T) {
	t.Parallel()

	server, _ := newConditionalServer(t, http.StatusOK, strings.Repeat("a", 100))

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{MaxBodySize: 10})

	resp, err := fetcher.Fetch(context.Background(), server.URL, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Body) != 10 {
		t.Errorf("body length = %d, want 10", len(resp.Body))
	}
}

func TestPageFetcherConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{})

	if _, err := fetcher.Fetch(context.Background(), server.URL, time.Time{}); err == nil {
		t.Fatal("expected error for closed server, got nil")
	}
}
