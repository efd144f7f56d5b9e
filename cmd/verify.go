package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the integration key is accepted by Notion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := newConverter().Verify(cmd.Context(), credential(key))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s\n", ws.Name)
			return err
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Notion integration key (default NOTION_API_KEY)")
	return cmd
}
