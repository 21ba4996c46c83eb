package remote

import (
	"context"
	"time"

	"github.com/davep/oldnews/internal/domain"
)

// The remote service's reserved stream IDs and state tags. The opaque
// tag vocabulary stays at this boundary; above it read state and folder
// membership are explicit.
const (
	// TagRead is the state tag the remote service attaches to read
	// articles.
	TagRead = "user/-/state/com.google/read"
	// StreamReadingList is the stream covering every subscribed feed.
	StreamReadingList = "user/-/state/com.google/reading-list"
)

// ListOptions configures a paged article listing.
type ListOptions struct {
	// StreamID scopes the listing to one subscription or folder; empty
	// means the whole reading list.
	StreamID string
	// Since limits the listing to articles updated after this time.
	Since time.Time
	// ExcludeRead drops articles the remote service considers read.
	ExcludeRead bool
	// PageSize is how many articles to return per page.
	PageSize int
	// Continuation resumes a previous listing from where it left off.
	Continuation string
}

// Client is the remote feed-aggregation service: the system of record
// for folders, subscriptions and articles. ListArticles returns one
// page at a time along with a continuation token; an empty token means
// the listing is exhausted.
type Client interface {
	ListFolders(ctx context.Context) ([]domain.Folder, error)
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	ListArticles(ctx context.Context, opts ListOptions) ([]domain.Article, string, error)
	ListUnreadIDs(ctx context.Context) ([]string, error)
	AddTag(ctx context.Context, articleIDs []string, tag string) error
	RemoveTag(ctx context.Context, articleIDs []string, tag string) error
}
