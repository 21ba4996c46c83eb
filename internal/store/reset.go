package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Reset erases all locally cached data from the given data directory:
// the database (including WAL side files) and the diagnostic log. When
// logout is true the authentication token file is removed as well.
func Reset(dataDir string, logout bool) error {
	patterns := []string{"*.db", "*.db-shm", "*.db-wal", "*.log"}
	if logout {
		patterns = append(patterns, ".token")
	}

	var remove []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dataDir, pattern))
		if err != nil {
			return fmt.Errorf("failed to scan data directory: %w", err)
		}
		remove = append(remove, matches...)
	}

	for _, path := range remove {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
