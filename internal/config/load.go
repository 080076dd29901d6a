package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonesrussell/harvest/internal/crawler"
	"github.com/jonesrussell/harvest/internal/database"
	"github.com/jonesrussell/harvest/internal/export"
	"github.com/jonesrussell/harvest/internal/sitemap"
	"github.com/jonesrussell/harvest/internal/sources"
	"github.com/jonesrussell/harvest/internal/storage"
	"github.com/jonesrussell/harvest/internal/urlfilter"
)

// envBindings maps config keys to the environment variables that override
// them. Later names are fallbacks for deployments that use the other spelling.
var envBindings = []struct {
	key  string
	envs []string
}{
	{"app.environment", []string{"APP_ENV"}},
	{"app.debug", []string{"APP_DEBUG"}},
	{"log.level", []string{"LOG_LEVEL"}},
	{"log.encoding", []string{"LOG_FORMAT"}},
	{"database.host", []string{"POSTGRES_HOST"}},
	{"database.port", []string{"POSTGRES_PORT"}},
	{"database.user", []string{"POSTGRES_USER"}},
	{"database.password", []string{"POSTGRES_PASSWORD"}},
	{"database.database", []string{"POSTGRES_DB"}},
	{"database.sslmode", []string{"POSTGRES_SSLMODE"}},
	{"elasticsearch.addresses", []string{"ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"}},
	{"elasticsearch.username", []string{"ELASTICSEARCH_USERNAME"}},
	{"elasticsearch.password", []string{"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"}},
	{"elasticsearch.api_key", []string{"ELASTICSEARCH_API_KEY"}},
	{"elasticsearch.index_name", []string{"ELASTICSEARCH_INDEX_NAME"}},
	{"sources.file", []string{"HARVEST_SOURCES"}},
}

// Load reads configuration from the given YAML file, the environment, and the
// built-in defaults. An empty path searches for config.yaml in the working
// directory; a missing file in that mode is not an error. Environment
// variables win over file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyLogOverrides(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        defaultAppName,
		"environment": defaultEnvironment,
		"debug":       false,
	})

	v.SetDefault("log", map[string]any{
		"level":       defaultLogLevel,
		"encoding":    defaultLogEncoding,
		"development": false,
	})

	v.SetDefault("database", map[string]any{
		"host":     defaultDBHost,
		"port":     defaultDBPort,
		"user":     defaultDBUser,
		"password": "",
		"database": defaultDBName,
		"sslmode":  defaultDBSSLMode,
		"table":    database.DefaultTable,
	})

	v.SetDefault("crawl", map[string]any{
		"max_pages":       crawler.DefaultMaxPages,
		"page_start":      crawler.DefaultPageStart,
		"page_end":        crawler.DefaultPageEnd,
		"delay":           defaultDelay.String(),
		"min_recrawl_age": "0s",
		"request_timeout": crawler.DefaultRequestTimeout.String(),
		"sitemap_timeout": sitemap.DefaultTimeout.String(),
		"user_agent":      crawler.DefaultUserAgent,
		"max_body_size":   crawler.DefaultMaxBodySize,
		"extensions":      sitemap.DefaultExtensions,
	})

	v.SetDefault("filter", map[string]any{
		"patterns": urlfilter.DefaultPatterns,
	})

	v.SetDefault("export", map[string]any{
		"output_dir":     export.DefaultOutputDir,
		"registry_name":  export.DefaultRegistryName,
		"min_words":      export.DefaultMinWords,
		"progress_every": export.DefaultProgressEvery,
		"index":          false,
	})

	v.SetDefault("elasticsearch", map[string]any{
		"addresses":  []string{defaultESAddress},
		"username":   "",
		"password":   "",
		"api_key":    "",
		"index_name": storage.DefaultIndex,
		"enabled":    false,
	})

	v.SetDefault("sources", map[string]any{
		"file": sources.DefaultPath,
	})
}

func bindEnvVars(v *viper.Viper) error {
	for _, b := range envBindings {
		if err := v.BindEnv(append([]string{b.key}, b.envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", b.key, err)
		}
	}
	return nil
}

// applyLogOverrides adjusts logging for debug and development runs. APP_DEBUG
// forces debug level in any environment; console encoding is a development
// nicety only.
func applyLogOverrides(v *viper.Viper) {
	if v.GetBool("app.debug") {
		v.Set("log.level", "debug")
	}
	if v.GetString("app.environment") == "development" {
		v.Set("log.development", true)
		v.Set("log.encoding", "console")
	}
}
