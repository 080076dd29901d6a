// Package urlfilter rejects page URLs that should never enter the corpus.
// The same filter runs at ingestion and at export so the stored set and the
// exported set agree on what counts as a content page.
package urlfilter

import "strings"

// DefaultPatterns lists path segments of non-article pages: tag and category
// listings, author indexes, media sections, AMP mirrors.
var DefaultPatterns = []string{
	"/tegi/",
	"/tags/",
	"/category/",
	"/author/",
	"/podcasts/",
	"/search/",
	"/archive/",
	"/amp/",
	"/person/",
	"/profile/",
	"/biznes_video/",
	"/video/",
}

// Filter matches URLs against a denylist of path segments.
type Filter struct {
	patterns []string
}

// New creates a filter with the given patterns. With no patterns the
// default denylist applies.
func New(patterns ...string) *Filter {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Filter{patterns: patterns}
}

// Allow reports whether the URL contains none of the denylisted segments.
func (f *Filter) Allow(rawURL string) bool {
	for _, p := range f.patterns {
		if p == "" {
			continue
		}
		if strings.Contains(rawURL, p) {
			return false
		}
	}
	return true
}

// Patterns returns the active denylist.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}
