package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davep/oldnews/internal/config"
	"github.com/davep/oldnews/internal/remote/oldreader"
	"github.com/davep/oldnews/internal/store"
)

func newResetCmd() *cobra.Command {
	var logoutFlag bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the local cache",
		Long:  "Erase the locally cached database and log. With --logout the stored auth token is removed too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Reset(config.DataDir(), logoutFlag); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			if logoutFlag {
				// The token may also live in the OS keyring.
				if err := oldreader.NewTokenStore(config.DataDir()).Delete(); err != nil {
					return fmt.Errorf("failed to remove token: %w", err)
				}
				fmt.Println("Local cache erased and logged out.")
				return nil
			}
			fmt.Println("Local cache erased.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&logoutFlag, "logout", false, "also remove the stored auth token")
	return cmd
}
