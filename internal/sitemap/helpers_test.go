package sitemap_test

import (
	"testing"

	"github.com/jonesrussell/harvest/internal/sitemap"
)

// requireNoError fails the test immediately if err is non-nil.
func requireNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// requireLen fails the test immediately if the slice length does not match.
func requireLen[T any](t *testing.T, items []T, expected int) {
	t.Helper()

	if len(items) != expected {
		t.Fatalf("expected %d items, got %d", expected, len(items))
	}
}

// requireLoc fails the test if the entry's Loc does not match.
func requireLoc(t *testing.T, entry sitemap.Entry, expected string) {
	t.Helper()

	if entry.Loc != expected {
		t.Fatalf("expected loc %q, got %q", expected, entry.Loc)
	}
}
