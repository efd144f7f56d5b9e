package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takak2166/notion2text/internal/config"
	"github.com/takak2166/notion2text/internal/converter"
	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/notion"
)

var (
	logLevel string
	cfg      *config.Config

	rootCmd = &cobra.Command{
		Use:           "notion-convert",
		Short:         "Convert Notion pages to Markdown, MDX, HTML or JSX",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(".env")
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}
			if err := logger.Init(loaded.LogLevel, loaded.LogFormat); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMCPCommand())
}

// newConverter builds a converter from the loaded configuration
func newConverter() *converter.Converter {
	sources := converter.NotionSources(notion.Options{
		Concurrency:       cfg.FetchConcurrency,
		RequestsPerSecond: cfg.FetchRPS,
		MaxDepth:          cfg.FetchMaxDepth,
		InlineChildPages:  cfg.InlineChildPages,
	})
	return converter.New(sources,
		converter.WithMaxDepth(cfg.FetchMaxDepth),
		converter.WithInlineChildPages(cfg.InlineChildPages),
	)
}

func credential(key string) string {
	if key != "" {
		return key
	}
	return cfg.NotionAPIKey
}
