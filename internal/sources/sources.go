// Package sources loads the harvest source list from a YAML file.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/harvest/internal/domain"
)

// DefaultPath is the source list location when none is configured.
const DefaultPath = "sources.yml"

var (
	// ErrNoSources indicates no sources were found in the configuration.
	ErrNoSources = errors.New("no sources found in configuration")
	// ErrMissingRequiredField indicates a required source field is missing.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Source is one site to harvest.
type Source struct {
	// Name labels stored pages. Defaults to the sitemap host when empty.
	Name string `mapstructure:"name"`
	// Sitemap is the absolute URL of the paginated sitemap.
	Sitemap string `mapstructure:"sitemap"`
}

// sourcesFile is the raw structure of a sources YAML file.
type sourcesFile struct {
	Sources []map[string]any `yaml:"sources"`
}

// Load reads and validates the source list. A missing file or an empty list
// yields ErrNoSources; invalid entries fail the whole load so a bad config
// cannot silently shrink the harvest. All invalid entries are reported, not
// just the first.
func Load(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoSources, path)
		}
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, ErrNoSources
	}

	var errs []error
	sources := make([]Source, 0, len(file.Sources))
	for i, raw := range file.Sources {
		source, convertErr := convert(raw)
		if convertErr != nil {
			errs = append(errs, fmt.Errorf("source %d: %w", i+1, convertErr))
			continue
		}
		sources = append(sources, source)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return sources, nil
}

// convert decodes and validates one raw source entry.
func convert(raw map[string]any) (Source, error) {
	var source Source
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &source,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Source{}, fmt.Errorf("create decoder: %w", err)
	}
	if decodeErr := decoder.Decode(raw); decodeErr != nil {
		return Source{}, fmt.Errorf("decode source: %w", decodeErr)
	}

	if source.Sitemap == "" {
		return Source{}, fmt.Errorf("%w: sitemap", ErrMissingRequiredField)
	}
	if err := validateSitemapURL(source.Sitemap); err != nil {
		return Source{}, fmt.Errorf("invalid sitemap %q: %w", source.Sitemap, err)
	}

	if source.Name == "" {
		source.Name = domain.SourceName(source.Sitemap)
	}
	if source.Name == "" {
		return Source{}, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}

	return source, nil
}

func validateSitemapURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an absolute HTTP(S) URL")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}

	return nil
}
