// Package sitemap fetches and parses paginated sitemap documents. A source's
// sitemap is served one page at a time via a ?page=N query parameter; each
// page lists content URLs that feed the harvest loop.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// dateOnlyFormat is the date-only layout for sitemap lastmod values (e.g. "2024-01-15").
const dateOnlyFormat = "2006-01-02"

// Entry represents a single URL entry extracted from a sitemap page.
type Entry struct {
	Loc     string     `json:"loc"`
	LastMod *time.Time `json:"lastmod,omitempty"`
}

// xmlDocument matches both <urlset> and <sitemapindex> roots. Sources differ
// in which shape their paginated sitemaps use, so both kinds of <loc> entries
// are collected.
type xmlDocument struct {
	URLs     []xmlEntry `xml:"url"`
	Sitemaps []xmlEntry `xml:"sitemap"`
}

// xmlEntry is a single <url> or <sitemap> element.
type xmlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Parse parses sitemap XML and returns the contained URL entries in document
// order. <urlset> and <sitemapindex> documents are both accepted; lastmod
// values that fail to parse are dropped, not fatal.
func Parse(body string) ([]Entry, error) {
	var doc xmlDocument
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	entries := make([]Entry, 0, len(doc.URLs)+len(doc.Sitemaps))
	entries = appendEntries(entries, doc.URLs)
	entries = appendEntries(entries, doc.Sitemaps)

	return entries, nil
}

func appendEntries(entries []Entry, raw []xmlEntry) []Entry {
	for i := range raw {
		e := convertEntry(&raw[i])
		if e.Loc == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// convertEntry converts a raw XML element into an Entry, parsing the lastmod
// date if present.
func convertEntry(raw *xmlEntry) Entry {
	e := Entry{Loc: strings.TrimSpace(raw.Loc)}

	if raw.LastMod != "" {
		if t, err := parseLastMod(raw.LastMod); err == nil {
			e.LastMod = &t
		}
	}

	return e
}

// parseLastMod attempts to parse a sitemap lastmod value. It tries RFC 3339
// first (e.g. "2024-01-15T10:30:00Z"), then falls back to the date-only
// format (e.g. "2024-01-15").
func parseLastMod(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)

	t, err := time.Parse(time.RFC3339, trimmed)
	if err == nil {
		return t, nil
	}

	t, dateErr := time.Parse(dateOnlyFormat, trimmed)
	if dateErr == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("parse lastmod %q: %w", trimmed, dateErr)
}
