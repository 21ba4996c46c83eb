package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/davep/oldnews/internal/domain"
)

// ReplaceSubscriptions replaces the cached subscription set, and the
// folder memberships that hang off it, wholesale in one transaction.
func (s *DB) ReplaceSubscriptions(ctx context.Context, subscriptions []domain.Subscription) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Memberships cascade from the subscription delete.
	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("failed to clear subscriptions: %w", err)
	}

	for _, sub := range subscriptions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, title, sort_id, first_item_time, url, html_url)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.Title, sub.SortID,
			sub.FirstItemTime.UTC().Format(time.RFC3339),
			sub.URL, sub.HTMLURL,
		); err != nil {
			return fmt.Errorf("failed to insert subscription %s: %w", sub.ID, err)
		}
		for _, category := range sub.Categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO subscription_categories (subscription_id, category_id, label)
				VALUES (?, ?, ?)`,
				sub.ID, category.ID, category.Label,
			); err != nil {
				return fmt.Errorf("failed to insert subscription category: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subscription replace: %w", err)
	}
	return nil
}

// Subscriptions returns the cached subscription set, including folder
// memberships, ordered by title.
func (s *DB) Subscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, sort_id, first_item_time, url, html_url
		FROM subscriptions
		ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	index := make(map[string]int)
	for rows.Next() {
		var sub domain.Subscription
		var firstItem string
		if err := rows.Scan(&sub.ID, &sub.Title, &sub.SortID, &firstItem, &sub.URL, &sub.HTMLURL); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		if sub.FirstItemTime, err = time.Parse(time.RFC3339, firstItem); err != nil {
			return nil, fmt.Errorf("failed to parse first item time: %w", err)
		}
		index[sub.ID] = len(subscriptions)
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	catRows, err := s.db.QueryContext(ctx,
		`SELECT subscription_id, category_id, label FROM subscription_categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var subID string
		var category domain.Category
		if err := catRows.Scan(&subID, &category.ID, &category.Label); err != nil {
			return nil, fmt.Errorf("failed to scan subscription category: %w", err)
		}
		if i, ok := index[subID]; ok {
			subscriptions[i].Categories = append(subscriptions[i].Categories, category)
		}
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscription categories: %w", err)
	}

	return subscriptions, nil
}
