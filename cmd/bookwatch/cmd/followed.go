package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

func followedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "followed",
		Short: "List followed books",
		Example: `  bookwatch followed
  bookwatch followed --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			items, err := newClient().ListFollowed(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No followed books.")
				return nil
			}
			return printFollowedTable(items)
		},
	}
}

func followCmd() *cobra.Command {
	var item domain.FollowedItem

	cmd := &cobra.Command{
		Use:   "follow <book-id>",
		Short: "Follow a book",
		Example: `  bookwatch follow 9788702245010 --title "Den afrikanske farm" --price 120
  bookwatch follow b42 --title Gift --author "Tove Ditlevsen" --price 150`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			item.ID = args[0]
			created, err := newClient().Follow(context.Background(), item)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}
			fmt.Printf("Following %q at %s DKK.\n", created.Title, formatPrice(created.Price))
			return nil
		},
	}

	cmd.Flags().StringVar(&item.Title, "title", "", "book title")
	cmd.Flags().StringVar(&item.Author, "author", "", "book author")
	cmd.Flags().Float64Var(&item.Price, "price", 0, "current price in DKK")

	return cmd
}

func unfollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <book-id>",
		Short: "Stop following a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := newClient().Unfollow(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Unfollowed %s.\n", args[0])
			return nil
		},
	}
}

func priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <book-id> <price>",
		Short: "Edit the price of a followed book",
		Long: "Edit the stored price of a followed book. A running watch session\n" +
			"reports the change like any other price change.",
		Example: `  bookwatch price b42 99.5`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[1], err)
			}
			updated, err := newClient().SetPrice(context.Background(), args[0], price)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(updated)
			}
			fmt.Printf("Price of %q set to %s DKK.\n", updated.Title, formatPrice(updated.Price))
			return nil
		},
	}
}
