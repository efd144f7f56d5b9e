// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/takak2166/notion2text/internal/models"
)

// Config holds the application configuration
type Config struct {
	NotionAPIKey     string
	LogLevel         string
	LogFormat        string
	OutputDir        string
	FetchConcurrency int
	FetchRPS         float64
	FetchMaxDepth    int
	InlineChildPages bool
	HTTPAddr         string
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault("notion_api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", "output")
	v.SetDefault("fetch_concurrency", 4)
	v.SetDefault("fetch_rps", 3.0)
	v.SetDefault("fetch_max_depth", 32)
	v.SetDefault("inline_child_pages", false)
	v.SetDefault("http_addr", ":8080")
	v.AutomaticEnv()

	cfg := &Config{
		NotionAPIKey:     v.GetString("notion_api_key"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
		OutputDir:        v.GetString("output_dir"),
		FetchConcurrency: v.GetInt("fetch_concurrency"),
		FetchRPS:         v.GetFloat64("fetch_rps"),
		FetchMaxDepth:    v.GetInt("fetch_max_depth"),
		InlineChildPages: v.GetBool("inline_child_pages"),
		HTTPAddr:         v.GetString("http_addr"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks numeric settings
func (c *Config) Validate() error {
	if c.FetchConcurrency < 1 {
		return &models.ConfigurationError{Field: "FETCH_CONCURRENCY", Value: fmt.Sprint(c.FetchConcurrency), Reason: "must be at least 1"}
	}
	if c.FetchRPS < 0 {
		return &models.ConfigurationError{Field: "FETCH_RPS", Value: fmt.Sprint(c.FetchRPS), Reason: "must not be negative"}
	}
	if c.FetchMaxDepth < 1 {
		return &models.ConfigurationError{Field: "FETCH_MAX_DEPTH", Value: fmt.Sprint(c.FetchMaxDepth), Reason: "must be at least 1"}
	}
	return nil
}
