package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/takak2166/notion2text/internal/models"
)

func newSearchCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "List pages visible to the integration",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := newConverter().Search(cmd.Context(), credential(key), strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderPages(cmd, pages)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Notion integration key (default NOTION_API_KEY)")
	return cmd
}

func renderPages(cmd *cobra.Command, pages []models.PageSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Last Edited", "URL"})
	for _, p := range pages {
		t.AppendRow(table.Row{p.ID, p.Title, p.LastEdited.Format("2006-01-02 15:04"), p.URL})
	}
	t.AppendFooter(table.Row{"", "Total", len(pages), ""})
	t.Render()
}
