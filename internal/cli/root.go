package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/davep/oldnews/internal/config"
	"github.com/davep/oldnews/internal/remote/oldreader"
	"github.com/davep/oldnews/internal/store/sqlite"
	"github.com/davep/oldnews/internal/tui"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "oldnews",
		Short:   "Terminal feed reader",
		Long:    "A terminal-based feed reader backed by The Old Reader.",
		Version: version,
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

			closeLog, err := redirectLog()
			if err != nil {
				return err
			}
			defer closeLog()

			return tui.Run(db, newClient(), cfg)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("oldnews %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.AddCommand(newLoginCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newUnreadCmd())
	root.AddCommand(newResetCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "oldnews.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// redirectLog sends the standard logger to a file in the data directory
// so diagnostics don't corrupt the terminal display.
func redirectLog() (func(), error) {
	path := filepath.Join(config.DataDir(), "oldnews.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(file)
	return func() {
		log.SetOutput(os.Stderr)
		file.Close()
	}, nil
}

// newClient builds a remote client using the stored auth token.
func newClient() *oldreader.Client {
	return oldreader.New(oldreader.NewTokenStore(config.DataDir()))
}
