package crawler

import (
	"time"

	"github.com/jonesrussell/harvest/internal/domain"
)

// Action is what the harvester should do for one sitemap URL.
type Action int

const (
	// ActionFetch requests the page unconditionally.
	ActionFetch Action = iota
	// ActionRevalidate requests the page with If-Modified-Since.
	ActionRevalidate
	// ActionSkip makes no request at all.
	ActionSkip
)

// String returns the action name for logs.
func (a Action) String() string {
	switch a {
	case ActionFetch:
		return "fetch"
	case ActionRevalidate:
		return "revalidate"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Plan carries the decision for one URL. LastFetched is set only for
// ActionRevalidate and becomes the If-Modified-Since value.
type Plan struct {
	Action      Action
	LastFetched time.Time
}

// Decide picks the fetch strategy for a URL given its stored record:
// no record or a record without a timestamp means an unconditional fetch; a
// record fresher than minAge (when minAge > 0) is skipped outright; anything
// else is revalidated against the stored timestamp.
func Decide(prev *domain.Page, minAge time.Duration, now time.Time) Plan {
	if prev == nil {
		return Plan{Action: ActionFetch}
	}
	if prev.FetchedAt.IsZero() {
		return Plan{Action: ActionFetch}
	}
	if minAge > 0 && now.Sub(prev.FetchedAt) < minAge {
		return Plan{Action: ActionSkip}
	}
	return Plan{Action: ActionRevalidate, LastFetched: prev.FetchedAt}
}
