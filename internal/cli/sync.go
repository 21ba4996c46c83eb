package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davep/oldnews/internal/app"
	"github.com/davep/oldnews/internal/remote"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronise with The Old Reader",
		Long:  "Download new articles and reconcile read state with The Old Reader.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			events := app.Events{
				Step:   func(description string) { fmt.Println(description) },
				Result: func(description string) { fmt.Println(description) },
			}
			if jsonFlag {
				// JSON mode reports only the final counts.
				events = app.Events{}
			}

			syncer := app.NewSyncer(db, newClient(), cfg.Sync.Retention(), cfg.Sync.PageSize, events)
			if err := syncer.Refresh(cmd.Context()); err != nil {
				return refreshError(err)
			}

			if jsonFlag {
				counts, err := app.NewQueries(db, newClient()).UnreadCounts(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(toJSONCounts(counts))
			}
			fmt.Println("Finished")
			return nil
		},
	}
}

// refreshError phrases a failed sync pass for the user, separating
// network trouble from a rejection by the service.
func refreshError(err error) error {
	if remote.IsTransient(err) {
		return fmt.Errorf("network problem during sync: %w", err)
	}
	return fmt.Errorf("sync failed: %w", err)
}
