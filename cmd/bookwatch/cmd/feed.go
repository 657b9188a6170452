package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func feedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show observed price changes",
		Example: `  bookwatch feed
  bookwatch feed --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries, err := newClient().Feed(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No price changes yet.")
				return nil
			}
			return printFeedTable(entries)
		},
	}
}

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the state of the watch session",
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := newClient().Session(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			return printSessionDetail(st)
		},
	}
}
