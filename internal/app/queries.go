package app

import (
	"context"
	"fmt"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
	"github.com/davep/oldnews/internal/store"
)

// Queries provides the read and mark operations the user interfaces
// work with, backed by the local store with read-state changes pushed
// to the remote service.
type Queries struct {
	store  store.Store
	remote remote.Client
}

// NewQueries creates a Queries service over the given store and remote
// client.
func NewQueries(s store.Store, r remote.Client) *Queries {
	return &Queries{store: s, remote: r}
}

// Folders returns the cached folders in their remote sort order.
func (q *Queries) Folders(ctx context.Context) ([]domain.Folder, error) {
	return q.store.Folders(ctx)
}

// Subscriptions returns the cached subscriptions ordered by title.
func (q *Queries) Subscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return q.store.Subscriptions(ctx)
}

// Articles returns cached articles for a folder or subscription, newest
// first.
func (q *Queries) Articles(ctx context.Context, opts store.ListArticleOptions) ([]domain.Article, error) {
	return q.store.ListArticles(ctx, opts)
}

// UnreadCounts returns the unread article counts per folder and per
// subscription.
func (q *Queries) UnreadCounts(ctx context.Context) (domain.UnreadCounts, error) {
	folders, err := q.store.Folders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	subscriptions, err := q.store.Subscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return q.store.UnreadCounts(ctx, folders, subscriptions)
}

// MarkRead marks the given articles read locally and on the remote
// service. The local store is updated first so the change is never
// lost to a network failure.
func (q *Queries) MarkRead(ctx context.Context, articleIDs []string) error {
	if err := q.store.MarkArticlesRead(ctx, articleIDs); err != nil {
		return fmt.Errorf("failed to mark articles read: %w", err)
	}
	if err := q.remote.AddTag(ctx, articleIDs, remote.TagRead); err != nil {
		return fmt.Errorf("failed to mark articles read remotely: %w", err)
	}
	return nil
}

// MarkUnread marks the given articles unread locally and on the remote
// service.
func (q *Queries) MarkUnread(ctx context.Context, articleIDs []string) error {
	if err := q.store.MarkArticlesUnread(ctx, articleIDs); err != nil {
		return fmt.Errorf("failed to mark articles unread: %w", err)
	}
	if err := q.remote.RemoveTag(ctx, articleIDs, remote.TagRead); err != nil {
		return fmt.Errorf("failed to mark articles unread remotely: %w", err)
	}
	return nil
}

// NavigationState returns the persisted folder expansion state.
func (q *Queries) NavigationState(ctx context.Context) (map[string]bool, error) {
	return q.store.NavigationState(ctx)
}

// SaveNavigationState persists the folder expansion state.
func (q *Queries) SaveNavigationState(ctx context.Context, expanded map[string]bool) error {
	return q.store.SaveNavigationState(ctx, expanded)
}
