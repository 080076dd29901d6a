// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrPageNotFound is returned when no page exists for a URL.
var ErrPageNotFound = errors.New("page not found")

// Page represents a harvested web page. The URL is the unique key: a page is
// replaced in place on re-fetch, never versioned.
type Page struct {
	// URL of the page, globally unique
	URL string `db:"url" json:"url"`
	// Raw HTML body as fetched
	RawHTML string `db:"raw_html" json:"raw_html"`
	// Source host the page came from, without a leading "www."
	Source string `db:"source" json:"source"`
	// Time of the last successful fetch; drives conditional revalidation
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// SourceName derives the source identifier from a page URL: the lowercased
// host with a leading "www." stripped. Unparseable URLs yield "".
func SourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
