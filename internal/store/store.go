package store

import (
	"context"
	"time"

	"github.com/davep/oldnews/internal/domain"
)

// Store defines the persistence interface for the local cache of
// folders, subscriptions and articles mirrored from the remote service.
type Store interface {
	// Folders
	ReplaceFolders(ctx context.Context, folders []domain.Folder) error
	Folders(ctx context.Context) ([]domain.Folder, error)

	// Subscriptions
	ReplaceSubscriptions(ctx context.Context, subscriptions []domain.Subscription) error
	Subscriptions(ctx context.Context) ([]domain.Subscription, error)

	// Articles
	UpsertArticles(ctx context.Context, articles []domain.Article) error
	ListArticles(ctx context.Context, opts ListArticleOptions) ([]domain.Article, error)
	MarkArticlesRead(ctx context.Context, articleIDs []string) error
	MarkArticlesUnread(ctx context.Context, articleIDs []string) error
	UnreadArticleIDs(ctx context.Context) ([]string, error)
	ReadArticleIDs(ctx context.Context) ([]string, error)
	DeleteArticlesForSubscription(ctx context.Context, subscriptionID string) (int64, error)
	DeleteReadArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	UnreadCounts(ctx context.Context, folders []domain.Folder, subscriptions []domain.Subscription) (domain.UnreadCounts, error)

	// Sync state
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, at time.Time) error

	// Navigation state
	NavigationState(ctx context.Context) (map[string]bool, error)
	SaveNavigationState(ctx context.Context, expanded map[string]bool) error

	// Lifecycle
	Close() error
}

// ListArticleOptions configures article listing queries. Exactly one of
// FolderID or SubscriptionID should be set; folder scoping goes through
// the article's folder memberships, subscription scoping through its
// origin stream ID. Results are ordered by published time, newest first.
type ListArticleOptions struct {
	FolderID       string
	SubscriptionID string
	UnreadOnly     bool
	Limit          int
}
