package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LastSync returns the time of the last successful sync, or the zero
// time if a sync has never completed.
func (s *DB) LastSync(ctx context.Context) (time.Time, error) {
	var syncedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT synced_at FROM last_sync LIMIT 1`).Scan(&syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}

	at, err := time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync time: %w", err)
	}
	return at, nil
}

// SetLastSync records the time of the last successful sync, replacing
// any previous record.
func (s *DB) SetLastSync(ctx context.Context, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM last_sync`); err != nil {
		return fmt.Errorf("failed to clear last sync time: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO last_sync (synced_at) VALUES (?)`,
		at.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to set last sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit last sync time: %w", err)
	}
	return nil
}

// NavigationState returns the set of folder IDs currently expanded in
// the navigation panel.
func (s *DB) NavigationState(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT folder_id FROM navigation_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to load navigation state: %w", err)
	}
	defer rows.Close()

	expanded := make(map[string]bool)
	for rows.Next() {
		var folderID string
		if err := rows.Scan(&folderID); err != nil {
			return nil, fmt.Errorf("failed to scan navigation state: %w", err)
		}
		expanded[folderID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate navigation state: %w", err)
	}

	return expanded, nil
}

// SaveNavigationState replaces the persisted set of expanded folders.
func (s *DB) SaveNavigationState(ctx context.Context, expanded map[string]bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM navigation_state`); err != nil {
		return fmt.Errorf("failed to clear navigation state: %w", err)
	}
	for folderID, isExpanded := range expanded {
		if !isExpanded {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO navigation_state (folder_id) VALUES (?)`, folderID,
		); err != nil {
			return fmt.Errorf("failed to save navigation state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit navigation state: %w", err)
	}
	return nil
}
