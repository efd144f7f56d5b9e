package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takak2166/notion2text/internal/export"
	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

func newConvertCommand() *cobra.Command {
	var (
		format string
		key    string
		output string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "convert <page-id|url>",
		Short: "Convert a page and write it to the output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newConverter().Convert(cmd.Context(), models.ConversionRequest{
				Credential: credential(key),
				PageID:     args[0],
				Format:     models.Format(format),
			})
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				logger.Warn("Block rendered as placeholder", map[string]interface{}{
					"block_id":   w.BlockID,
					"block_type": w.BlockType,
					"message":    w.Message,
				})
			}

			if stdout {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Content)
				return err
			}

			if output == "" {
				output = cfg.OutputDir
			}
			pages := map[string]string{res.PageID: res.Content}
			for id, body := range res.Pages {
				pages[id] = body
			}
			paths, err := export.WriteFiles(output, pages, res.Format.Extension())
			if err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			logger.Info("Conversion completed", map[string]interface{}{
				"page_id":  res.PageID,
				"title":    res.Title,
				"files":    len(paths),
				"warnings": len(res.Warnings),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown, mdx, html or jsx")
	cmd.Flags().StringVar(&key, "key", "", "Notion integration key (default NOTION_API_KEY)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default OUTPUT_DIR)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the page instead of writing files")
	return cmd
}
