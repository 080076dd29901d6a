// Package metrics provides in-process counters for harvest runs.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds harvest counters. All methods are safe for concurrent use.
type Metrics struct {
	// Requests is the number of page fetch attempts, including failures.
	Requests int64
	// StoredNew is the number of pages stored under a new url.
	StoredNew int64
	// StoredUpdated is the number of pages replaced in place.
	StoredUpdated int64
	// Unchanged is the number of 304 revalidations.
	Unchanged int64
	// Skipped is the number of urls skipped without a request.
	Skipped int64
	// Filtered is the number of urls rejected by the url filter.
	Filtered int64
	// Failed is the number of urls that contributed nothing due to errors.
	Failed int64
	// SitemapErrors is the number of sitemap pages that failed to load.
	SitemapErrors int64
	// StartTime is when the metrics collection began.
	StartTime time.Time
	// mu protects concurrent access to metrics.
	mu sync.Mutex
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests      int64
	StoredNew     int64
	StoredUpdated int64
	Unchanged     int64
	Skipped       int64
	Filtered      int64
	Failed        int64
	SitemapErrors int64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// IncRequest counts a page fetch attempt.
func (m *Metrics) IncRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

// IncStoredNew counts a page stored under a new url.
func (m *Metrics) IncStoredNew() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoredNew++
}

// IncStoredUpdated counts a page replaced in place.
func (m *Metrics) IncStoredUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoredUpdated++
}

// IncUnchanged counts a 304 revalidation.
func (m *Metrics) IncUnchanged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unchanged++
}

// IncSkipped counts a url skipped without a request.
func (m *Metrics) IncSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped++
}

// IncFiltered counts a url rejected by the url filter.
func (m *Metrics) IncFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Filtered++
}

// IncFailed counts a url that contributed nothing due to an error.
func (m *Metrics) IncFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed++
}

// IncSitemapError counts a sitemap page that failed to load.
func (m *Metrics) IncSitemapError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SitemapErrors++
}

// Get returns a point-in-time copy of the counters.
func (m *Metrics) Get() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:      m.Requests,
		StoredNew:     m.StoredNew,
		StoredUpdated: m.StoredUpdated,
		Unchanged:     m.Unchanged,
		Skipped:       m.Skipped,
		Filtered:      m.Filtered,
		Failed:        m.Failed,
		SitemapErrors: m.SitemapErrors,
	}
}

// Reset clears the counters, keeping StartTime. Scheduled harvests reset
// between runs so each summary reflects a single run.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = 0
	m.StoredNew = 0
	m.StoredUpdated = 0
	m.Unchanged = 0
	m.Skipped = 0
	m.Filtered = 0
	m.Failed = 0
	m.SitemapErrors = 0
}
