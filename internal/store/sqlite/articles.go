package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/store"
)

// UpsertArticles inserts or updates a batch of articles in a single
// transaction. An update refreshes every article field but never clears
// a read flag that was already set locally; folder memberships and
// alternate links are replaced from the incoming article.
func (s *DB) UpsertArticles(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range articles {
		if err := upsertArticle(ctx, tx, &articles[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit article upsert: %w", err)
	}
	return nil
}

func upsertArticle(ctx context.Context, tx *sql.Tx, a *domain.Article) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO articles (id, title, published, updated, author,
			summary_text, summary_direction,
			origin_stream_id, origin_title, origin_html_url, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title             = excluded.title,
			published         = excluded.published,
			updated           = excluded.updated,
			author            = excluded.author,
			summary_text      = excluded.summary_text,
			summary_direction = excluded.summary_direction,
			origin_stream_id  = excluded.origin_stream_id,
			origin_title      = excluded.origin_title,
			origin_html_url   = excluded.origin_html_url,
			is_read           = is_read OR excluded.is_read`,
		a.ID, a.Title,
		a.Published.UTC().Format(time.RFC3339),
		a.Updated.UTC().Format(time.RFC3339),
		a.Author, a.Summary.Content, a.Summary.Direction,
		a.Origin.StreamID, a.Origin.Title, a.Origin.HTMLURL,
		a.IsRead,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert article %s: %w", a.ID, err)
	}

	// Replace folder memberships from the incoming article.
	if _, err := tx.ExecContext(ctx, `DELETE FROM article_folders WHERE article_id = ?`, a.ID); err != nil {
		return fmt.Errorf("failed to clear article folders: %w", err)
	}
	for _, folderID := range a.Folders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_folders (article_id, folder_id) VALUES (?, ?)`,
			a.ID, folderID,
		); err != nil {
			return fmt.Errorf("failed to insert article folder: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_alternates WHERE article_id = ?`, a.ID); err != nil {
		return fmt.Errorf("failed to clear article alternates: %w", err)
	}
	for _, alternate := range a.Alternates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_alternates (article_id, href, mime_type) VALUES (?, ?, ?)`,
			a.ID, alternate.Href, alternate.MIMEType,
		); err != nil {
			return fmt.Errorf("failed to insert article alternate: %w", err)
		}
	}

	return nil
}

// ListArticles returns articles scoped to a folder or a subscription,
// newest first.
func (s *DB) ListArticles(ctx context.Context, opts store.ListArticleOptions) ([]domain.Article, error) {
	query := `
		SELECT a.id, a.title, a.published, a.updated, a.author,
			a.summary_text, a.summary_direction,
			a.origin_stream_id, a.origin_title, a.origin_html_url, a.is_read
		FROM articles a`
	var args []any

	switch {
	case opts.FolderID != "":
		query += `
		JOIN article_folders af ON af.article_id = a.id
		WHERE af.folder_id = ?`
		args = append(args, opts.FolderID)
	case opts.SubscriptionID != "":
		query += `
		WHERE a.origin_stream_id = ?`
		args = append(args, opts.SubscriptionID)
	default:
		return nil, fmt.Errorf("article listing requires a folder or subscription scope")
	}

	if opts.UnreadOnly {
		query += ` AND a.is_read = FALSE`
	}
	query += ` ORDER BY a.published DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	for i := range articles {
		if err := s.loadArticleRelations(ctx, &articles[i]); err != nil {
			return nil, err
		}
	}

	return articles, nil
}

func scanArticle(rows *sql.Rows) (*domain.Article, error) {
	var a domain.Article
	var published, updated string
	if err := rows.Scan(
		&a.ID, &a.Title, &published, &updated, &a.Author,
		&a.Summary.Content, &a.Summary.Direction,
		&a.Origin.StreamID, &a.Origin.Title, &a.Origin.HTMLURL, &a.IsRead,
	); err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	var err error
	if a.Published, err = time.Parse(time.RFC3339, published); err != nil {
		return nil, fmt.Errorf("failed to parse published time: %w", err)
	}
	if a.Updated, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("failed to parse updated time: %w", err)
	}
	return &a, nil
}

func (s *DB) loadArticleRelations(ctx context.Context, a *domain.Article) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT folder_id FROM article_folders WHERE article_id = ?`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query article folders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var folderID string
		if err := rows.Scan(&folderID); err != nil {
			return fmt.Errorf("failed to scan article folder: %w", err)
		}
		a.Folders = append(a.Folders, folderID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate article folders: %w", err)
	}

	altRows, err := s.db.QueryContext(ctx,
		`SELECT href, mime_type FROM article_alternates WHERE article_id = ?`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query article alternates: %w", err)
	}
	defer altRows.Close()
	for altRows.Next() {
		var alt domain.Alternate
		if err := altRows.Scan(&alt.Href, &alt.MIMEType); err != nil {
			return fmt.Errorf("failed to scan article alternate: %w", err)
		}
		a.Alternates = append(a.Alternates, alt)
	}
	if err := altRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate article alternates: %w", err)
	}

	return nil
}

// MarkArticlesRead sets the read flag on the given articles. Marking an
// already-read article is a no-op.
func (s *DB) MarkArticlesRead(ctx context.Context, articleIDs []string) error {
	return s.setRead(ctx, articleIDs, true)
}

// MarkArticlesUnread clears the read flag on the given articles.
// Marking an already-unread article is a no-op.
func (s *DB) MarkArticlesUnread(ctx context.Context, articleIDs []string) error {
	return s.setRead(ctx, articleIDs, false)
}

func (s *DB) setRead(ctx context.Context, articleIDs []string, read bool) error {
	if len(articleIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE articles SET is_read = ? WHERE id IN (%s)`,
		placeholders(len(articleIDs)))
	args := append([]any{read}, stringArgs(articleIDs)...)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set read=%v: %w", read, err)
	}
	return nil
}

// UnreadArticleIDs returns the IDs of all locally-unread articles.
func (s *DB) UnreadArticleIDs(ctx context.Context) ([]string, error) {
	return s.articleIDsWhereRead(ctx, false)
}

// ReadArticleIDs returns the IDs of all locally-read articles.
func (s *DB) ReadArticleIDs(ctx context.Context) ([]string, error) {
	return s.articleIDsWhereRead(ctx, true)
}

func (s *DB) articleIDsWhereRead(ctx context.Context, read bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM articles WHERE is_read = ?`, read)
	if err != nil {
		return nil, fmt.Errorf("failed to query article IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate article IDs: %w", err)
	}

	return ids, nil
}

// DeleteArticlesForSubscription removes every cached article that
// originated from the given subscription, returning how many were
// removed.
func (s *DB) DeleteArticlesForSubscription(ctx context.Context, subscriptionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE origin_stream_id = ?`, subscriptionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles for %s: %w", subscriptionID, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted articles: %w", err)
	}
	return deleted, nil
}

// DeleteReadArticlesBefore removes read articles published before the
// cutoff. Unread articles are retained regardless of age.
func (s *DB) DeleteReadArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE is_read = TRUE AND published < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old read articles: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted articles: %w", err)
	}
	return deleted, nil
}

// UnreadCounts returns the number of unread articles for each of the
// given folders and subscriptions. Every requested category gets an
// entry, zero included.
func (s *DB) UnreadCounts(ctx context.Context, folders []domain.Folder, subscriptions []domain.Subscription) (domain.UnreadCounts, error) {
	counts := make(domain.UnreadCounts, len(folders)+len(subscriptions))
	for _, folder := range folders {
		counts[folder.ID] = 0
	}
	for _, sub := range subscriptions {
		counts[sub.ID] = 0
	}

	folderRows, err := s.db.QueryContext(ctx, `
		SELECT af.folder_id, COUNT(*)
		FROM articles a
		JOIN article_folders af ON af.article_id = a.id
		WHERE a.is_read = FALSE
		GROUP BY af.folder_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count folder unread: %w", err)
	}
	defer folderRows.Close()
	if err := mergeCounts(folderRows, counts); err != nil {
		return nil, err
	}

	subRows, err := s.db.QueryContext(ctx, `
		SELECT origin_stream_id, COUNT(*)
		FROM articles
		WHERE is_read = FALSE
		GROUP BY origin_stream_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscription unread: %w", err)
	}
	defer subRows.Close()
	if err := mergeCounts(subRows, counts); err != nil {
		return nil, err
	}

	return counts, nil
}

// mergeCounts folds (id, count) rows into counts, ignoring IDs that
// were not asked for.
func mergeCounts(rows *sql.Rows, counts domain.UnreadCounts) error {
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return fmt.Errorf("failed to scan unread count: %w", err)
		}
		if _, ok := counts[id]; ok {
			counts[id] = count
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate unread counts: %w", err)
	}
	return nil
}
