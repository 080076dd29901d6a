// Package config loads the harvester configuration from YAML files,
// environment variables, and built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/jonesrussell/harvest/internal/export"
)

// Defaults owned by the config package. Values owned by other packages are
// referenced from their Default constants in setDefaults.
const (
	defaultAppName     = "harvest"
	defaultEnvironment = "production"
	defaultLogLevel    = "info"
	defaultLogEncoding = "json"
	defaultDBHost      = "localhost"
	defaultDBPort      = 5432
	defaultDBUser      = "postgres"
	defaultDBName      = "harvest"
	defaultDBSSLMode   = "disable"
	defaultDelay       = 3 * time.Second
	defaultESAddress   = "http://localhost:9200"
	maxPort            = 65535
)

// Config is the top-level harvester configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Crawl         CrawlConfig         `mapstructure:"crawl"`
	Filter        FilterConfig        `mapstructure:"filter"`
	Export        ExportConfig        `mapstructure:"export"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Sources       SourcesConfig       `mapstructure:"sources"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig holds the page store connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	Table    string `mapstructure:"table"`
}

// CrawlConfig holds crawl loop settings. Durations are Go duration strings
// in YAML ("3s", "30m").
type CrawlConfig struct {
	MaxPages       int64         `mapstructure:"max_pages"`
	PageStart      int           `mapstructure:"page_start"`
	PageEnd        int           `mapstructure:"page_end"`
	Delay          time.Duration `mapstructure:"delay"`
	MinRecrawlAge  time.Duration `mapstructure:"min_recrawl_age"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SitemapTimeout time.Duration `mapstructure:"sitemap_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`
	Extensions     []string      `mapstructure:"extensions"`
}

// FilterConfig holds the shared URL denylist applied at ingestion and export.
type FilterConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// ExportConfig holds dataset export settings.
type ExportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	RegistryName  string `mapstructure:"registry_name"`
	MinWords      int    `mapstructure:"min_words"`
	ProgressEvery int    `mapstructure:"progress_every"`
	Index         bool   `mapstructure:"index"`
}

// ElasticsearchConfig holds search index settings.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	APIKey    string   `mapstructure:"api_key"`
	IndexName string   `mapstructure:"index_name"`
	Enabled   bool     `mapstructure:"enabled"`
}

// SourcesConfig locates the sitemap source list.
type SourcesConfig struct {
	File string `mapstructure:"file"`
}

// Validate checks the configuration section by section.
func (c *Config) Validate() error {
	if err := c.Log.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := c.Crawl.validate(); err != nil {
		return err
	}
	if err := c.Export.validate(); err != nil {
		return err
	}
	if err := c.Elasticsearch.validate(); err != nil {
		return err
	}
	if c.Sources.File == "" {
		return fmt.Errorf("sources.file: is required")
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q", l.Level)
	}
	switch l.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding: unsupported encoding %q", l.Encoding)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host: is required")
	}
	if d.Port < 1 || d.Port > maxPort {
		return fmt.Errorf("database.port: invalid port %d", d.Port)
	}
	if d.User == "" {
		return fmt.Errorf("database.user: is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database: is required")
	}
	if d.Table == "" {
		return fmt.Errorf("database.table: is required")
	}
	return nil
}

func (cr *CrawlConfig) validate() error {
	if cr.PageStart < 1 {
		return fmt.Errorf("crawl.page_start: must be at least 1, got %d", cr.PageStart)
	}
	if cr.PageEnd < cr.PageStart {
		return fmt.Errorf("crawl.page_end: must be at least page_start, got %d", cr.PageEnd)
	}
	if cr.Delay < 0 {
		return fmt.Errorf("crawl.delay: must not be negative, got %s", cr.Delay)
	}
	if cr.MinRecrawlAge < 0 {
		return fmt.Errorf("crawl.min_recrawl_age: must not be negative, got %s", cr.MinRecrawlAge)
	}
	if cr.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout: must be positive, got %s", cr.RequestTimeout)
	}
	if cr.SitemapTimeout <= 0 {
		return fmt.Errorf("crawl.sitemap_timeout: must be positive, got %s", cr.SitemapTimeout)
	}
	if cr.MaxBodySize <= 0 {
		return fmt.Errorf("crawl.max_body_size: must be positive, got %d", cr.MaxBodySize)
	}
	return nil
}

func (e *ExportConfig) validate() error {
	if e.OutputDir == "" {
		return fmt.Errorf("export.output_dir: is required")
	}
	if e.RegistryName == "" {
		return fmt.Errorf("export.registry_name: is required")
	}
	if e.MinWords < 0 {
		return fmt.Errorf("export.min_words: must not be negative, got %d", e.MinWords)
	}
	if e.ProgressEvery < 1 {
		return fmt.Errorf("export.progress_every: must be at least 1, got %d", e.ProgressEvery)
	}
	return nil
}

func (e *ElasticsearchConfig) validate() error {
	if !e.Enabled {
		return nil
	}
	if len(e.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses: is required when elasticsearch is enabled")
	}
	if e.IndexName == "" {
		return fmt.Errorf("elasticsearch.index_name: is required when elasticsearch is enabled")
	}
	return nil
}

// ExportOptions maps the export section onto the exporter's own config type.
func (c *Config) ExportOptions() export.Config {
	return export.Config{
		OutputDir:     c.Export.OutputDir,
		RegistryName:  c.Export.RegistryName,
		MinWords:      c.Export.MinWords,
		ProgressEvery: c.Export.ProgressEvery,
	}
}
