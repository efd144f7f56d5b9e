package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/takak2166/notion2text/internal/models"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		check       func(t *testing.T, cfg *Config)
		expectError bool
	}{
		{
			name: "Defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "info" || cfg.FetchConcurrency != 4 || cfg.FetchMaxDepth != 32 {
					t.Errorf("Unexpected defaults: %+v", cfg)
				}
				if cfg.FetchRPS != 3 {
					t.Errorf("Expected default rps 3, got %v", cfg.FetchRPS)
				}
				if cfg.HTTPAddr != ":8080" {
					t.Errorf("Expected default addr, got %q", cfg.HTTPAddr)
				}
			},
		},
		{
			name: "Environment overrides",
			envVars: map[string]string{
				"NOTION_API_KEY":     "secret_key",
				"FETCH_CONCURRENCY":  "8",
				"INLINE_CHILD_PAGES": "true",
				"LOG_FORMAT":         "json",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.NotionAPIKey != "secret_key" {
					t.Errorf("Expected key from env, got %q", cfg.NotionAPIKey)
				}
				if cfg.FetchConcurrency != 8 {
					t.Errorf("Expected concurrency 8, got %d", cfg.FetchConcurrency)
				}
				if !cfg.InlineChildPages {
					t.Error("Expected inline child pages enabled")
				}
				if cfg.LogFormat != "json" {
					t.Errorf("Expected json format, got %q", cfg.LogFormat)
				}
			},
		},
		{
			name: "Zero concurrency",
			envVars: map[string]string{
				"FETCH_CONCURRENCY": "0",
			},
			expectError: true,
		},
		{
			name: "Negative rps",
			envVars: map[string]string{
				"FETCH_RPS": "-1",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.expectError {
				if !errors.Is(err, models.ErrConfiguration) {
					t.Errorf("Expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("OUTPUT_DIR=exports\nFETCH_MAX_DEPTH=5\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("OUTPUT_DIR")
		os.Unsetenv("FETCH_MAX_DEPTH")
	})

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.OutputDir != "exports" {
		t.Errorf("Expected output dir from .env, got %q", cfg.OutputDir)
	}
	if cfg.FetchMaxDepth != 5 {
		t.Errorf("Expected max depth 5, got %d", cfg.FetchMaxDepth)
	}
}
