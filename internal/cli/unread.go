package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davep/oldnews/internal/app"
)

func newUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Show unread counts",
		Long:  "Show the unread article counts per folder and subscription from the local cache.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			queries := app.NewQueries(db, newClient())
			counts, err := queries.UnreadCounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to calculate unread counts: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONCounts(counts))
			}

			subscriptions, err := queries.Subscriptions(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}
			if len(subscriptions) == 0 {
				fmt.Println("No subscriptions found. Run 'oldnews sync' first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "UNREAD\tSUBSCRIPTION")
			for _, sub := range subscriptions {
				fmt.Fprintf(w, "%d\t%s\n", counts[sub.ID], sub.Title)
			}
			fmt.Fprintf(w, "%d\tTotal\n", counts.Total())
			return w.Flush()
		},
	}
}
