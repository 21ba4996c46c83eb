package sqlite

import (
	"context"
	"fmt"

	"github.com/davep/oldnews/internal/domain"
)

// ReplaceFolders replaces the cached folder set wholesale. The delete
// and re-insert happen in one transaction so readers never observe an
// empty intermediate state.
func (s *DB) ReplaceFolders(ctx context.Context, folders []domain.Folder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM folders`); err != nil {
		return fmt.Errorf("failed to clear folders: %w", err)
	}
	for _, folder := range folders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO folders (id, sort_id) VALUES (?, ?)`,
			folder.ID, folder.SortID,
		); err != nil {
			return fmt.Errorf("failed to insert folder %s: %w", folder.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit folder replace: %w", err)
	}
	return nil
}

// Folders returns the cached folder set, ordered by sort ID.
func (s *DB) Folders(ctx context.Context) ([]domain.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sort_id FROM folders ORDER BY sort_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.SortID); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return folders, nil
}
