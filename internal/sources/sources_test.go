package sources_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/harvest/internal/sources"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestLoadValidSources(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `sources:
  - name: example
    sitemap: https://example.com/sitemap.xml
  - name: other
    sitemap: https://news.other.org/sitemap.xml
`)

	loaded, err := sources.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "example", loaded[0].Name)
	assert.Equal(t, "https://example.com/sitemap.xml", loaded[0].Sitemap)
	assert.Equal(t, "other", loaded[1].Name)
}

func TestLoadDerivesNameFromSitemapHost(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `sources:
  - sitemap: https://www.example.com/sitemap.xml
`)

	loaded, err := sources.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assert.Equal(t, "example.com", loaded[0].Name)
}

func TestLoadMissingSitemap(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `sources:
  - name: example
`)

	_, err := sources.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrMissingRequiredField)
}

func TestLoadRejectsRelativeSitemap(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `sources:
  - name: example
    sitemap: /sitemap.xml
`)

	_, err := sources.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source 1")
}

func TestLoadReportsEveryInvalidEntry(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `sources:
  - name: first
  - name: second
    sitemap: ftp://example.com/sitemap.xml
  - name: third
    sitemap: https://example.com/sitemap.xml
`)

	_, err := sources.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source 1")
	assert.Contains(t, err.Error(), "source 2")
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, "sources: []\n")

	_, err := sources.Load(path)
	assert.ErrorIs(t, err, sources.ErrNoSources)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := sources.Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.ErrorIs(t, err, sources.ErrNoSources)
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, "sources:\n  - name: [unterminated\n")

	_, err := sources.Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sources.ErrNoSources)
}
