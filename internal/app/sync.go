package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
	"github.com/davep/oldnews/internal/store"
)

// Events carries the progress callbacks a Syncer reports through while
// a refresh runs. Every callback is optional; a nil field is skipped.
type Events struct {
	// Step reports the start of a sync phase.
	Step func(description string)
	// Result reports the outcome of a sync phase.
	Result func(description string)
	// Folders delivers the freshly-synced folder list.
	Folders func(folders []domain.Folder)
	// Subscriptions delivers the freshly-synced subscription list.
	Subscriptions func(subscriptions []domain.Subscription)
	// Unread delivers the recalculated unread counts.
	Unread func(counts domain.UnreadCounts)
	// Finished reports that the whole refresh is done.
	Finished func()
}

func (e Events) step(description string) {
	if e.Step != nil {
		e.Step(description)
	}
}

func (e Events) result(description string) {
	if e.Result != nil {
		e.Result(description)
	}
}

// Syncer orchestrates synchronization between the remote service and
// the local store.
type Syncer struct {
	store     store.Store
	remote    remote.Client
	retention time.Duration
	pageSize  int
	events    Events
	now       func() time.Time
}

// NewSyncer creates a Syncer mirroring the remote service into the
// given store. Articles older than the retention window are never
// fetched, and read articles beyond it are removed after each refresh.
func NewSyncer(s store.Store, r remote.Client, retention time.Duration, pageSize int, events Events) *Syncer {
	return &Syncer{
		store:     s,
		remote:    r,
		retention: retention,
		pageSize:  pageSize,
		events:    events,
		now:       time.Now,
	}
}

// Refresh runs one full synchronization pass: folders, subscriptions,
// new articles, read-state reconciliation, backlog for new
// subscriptions, removal of orphaned and expired articles, and finally
// a recount of unread articles.
func (s *Syncer) Refresh(ctx context.Context) error {
	lastSync, err := s.store.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sync time: %w", err)
	}
	firstSync := lastSync.IsZero()

	if err := s.fetchFolders(ctx); err != nil {
		return err
	}

	knownSubscriptions, subscriptions, err := s.fetchSubscriptions(ctx)
	if err != nil {
		return err
	}

	if err := s.downloadNew(ctx, lastSync); err != nil {
		return err
	}

	if !firstSync {
		if err := s.reconcileReadState(ctx); err != nil {
			return err
		}
		s.backfillNewSubscriptions(ctx, knownSubscriptions, subscriptions)
	}

	if err := s.purgeRemoved(ctx, knownSubscriptions, subscriptions); err != nil {
		return err
	}
	if err := s.cleanOldRead(ctx); err != nil {
		return err
	}
	if err := s.recomputeUnread(ctx); err != nil {
		return err
	}

	if s.events.Finished != nil {
		s.events.Finished()
	}
	return nil
}

// fetchFolders replaces the local folder list with the remote one.
func (s *Syncer) fetchFolders(ctx context.Context) error {
	s.events.step("Getting folder list")
	folders, err := s.remote.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	if err := s.store.ReplaceFolders(ctx, folders); err != nil {
		return fmt.Errorf("failed to store folders: %w", err)
	}
	log.Printf("[sync] synced %d folders", len(folders))
	if s.events.Folders != nil {
		s.events.Folders(folders)
	}
	return nil
}

// fetchSubscriptions replaces the local subscription list with the
// remote one, returning the set of subscription IDs that were known
// before the replace along with the fresh list.
func (s *Syncer) fetchSubscriptions(ctx context.Context) (map[string]bool, []domain.Subscription, error) {
	s.events.step("Getting subscription list")

	// Snapshot what we already knew so newly-appeared subscriptions
	// can get a backlog download later.
	cached, err := s.store.Subscriptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cached subscriptions: %w", err)
	}
	known := make(map[string]bool, len(cached))
	for _, sub := range cached {
		known[sub.ID] = true
	}

	subscriptions, err := s.remote.ListSubscriptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if err := s.store.ReplaceSubscriptions(ctx, subscriptions); err != nil {
		return nil, nil, fmt.Errorf("failed to store subscriptions: %w", err)
	}
	log.Printf("[sync] synced %d subscriptions", len(subscriptions))
	if s.events.Subscriptions != nil {
		s.events.Subscriptions(subscriptions)
	}
	return known, subscriptions, nil
}

// downloadNew pulls articles that appeared since the last refresh. On
// the very first refresh there is no watermark, so it pulls every
// unread article instead.
func (s *Syncer) downloadNew(ctx context.Context, lastSync time.Time) error {
	opts := remote.ListOptions{PageSize: s.pageSize}
	if lastSync.IsZero() {
		opts.ExcludeRead = true
	} else {
		opts.Since = lastSync
		if cutoff := s.now().Add(-s.retention); opts.Since.Before(cutoff) {
			opts.Since = cutoff
		}
	}

	// The watermark is captured before the download starts so anything
	// published while pages stream in is picked up next time.
	newGrab := s.now()

	count, err := s.download(ctx, opts, "Downloading articles from TheOldReader")
	if err != nil {
		return err
	}
	if count == 0 {
		s.events.result("No new articles found on TheOldReader")
	} else {
		s.events.result(fmt.Sprintf("Articles downloaded: %d", count))
	}

	if err := s.store.SetLastSync(ctx, newGrab); err != nil {
		return fmt.Errorf("failed to save last sync time: %w", err)
	}
	return nil
}

// download pulls every page for the given options into the store, one
// page per round trip, reporting progress as it goes. It returns the
// number of articles stored.
func (s *Syncer) download(ctx context.Context, opts remote.ListOptions, description string) (int, error) {
	count := 0
	for {
		page, continuation, err := s.remote.ListArticles(ctx, opts)
		if err != nil {
			return count, fmt.Errorf("failed to list articles (stored %d so far): %w", count, err)
		}

		articles := make([]domain.Article, 0, len(page))
		for _, article := range page {
			// The odd item arrives with no origin; it can't be
			// attributed to a subscription so it is dropped.
			if article.Origin.StreamID == "" {
				log.Printf("[sync] skipping article %s with no origin", article.ID)
				continue
			}
			articles = append(articles, article)
		}
		if err := s.store.UpsertArticles(ctx, articles); err != nil {
			return count, fmt.Errorf("failed to store articles: %w", err)
		}
		count += len(articles)
		if len(page) > 0 {
			s.events.step(fmt.Sprintf("%s: %d", description, count))
		}

		if continuation == "" || len(page) == 0 {
			return count, nil
		}
		opts.Continuation = continuation
	}
}

// reconcileReadState marks locally-unread articles as read when the
// remote service no longer lists them as unread, catching up with reads
// made in other clients.
func (s *Syncer) reconcileReadState(ctx context.Context) error {
	s.events.step("Checking for articles read elsewhere")

	localUnread, err := s.store.UnreadArticleIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local unread articles: %w", err)
	}
	if len(localUnread) == 0 {
		return nil
	}

	remoteUnread, err := s.remote.ListUnreadIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote unread articles: %w", err)
	}
	stillUnread := make(map[string]bool, len(remoteUnread))
	for _, id := range remoteUnread {
		stillUnread[id] = true
	}

	var readElsewhere []string
	for _, id := range localUnread {
		if !stillUnread[id] {
			readElsewhere = append(readElsewhere, id)
		}
	}
	if len(readElsewhere) == 0 {
		return nil
	}

	if err := s.store.MarkArticlesRead(ctx, readElsewhere); err != nil {
		return fmt.Errorf("failed to mark articles read: %w", err)
	}
	log.Printf("[sync] marked %d articles read elsewhere", len(readElsewhere))
	s.events.result(fmt.Sprintf("Articles found read elsewhere and marked as read: %d", len(readElsewhere)))
	return nil
}

// backfillNewSubscriptions downloads the retained history for
// subscriptions that appeared since the previous refresh. A failing
// backlog is logged and skipped; the next refresh will retry it.
func (s *Syncer) backfillNewSubscriptions(ctx context.Context, known map[string]bool, subscriptions []domain.Subscription) {
	since := s.now().Add(-s.retention)
	for _, sub := range subscriptions {
		if known[sub.ID] {
			continue
		}
		s.events.step(fmt.Sprintf("Downloading article backlog for %s", sub.Title))
		opts := remote.ListOptions{
			StreamID: sub.ID,
			Since:    since,
			PageSize: s.pageSize,
		}
		if _, err := s.download(ctx, opts, fmt.Sprintf("Downloading article backlog for %s", sub.Title)); err != nil {
			log.Printf("[sync] failed to download backlog for %s: %v", sub.ID, err)
		}
	}
}

// purgeRemoved deletes the articles of subscriptions that were known
// before this refresh but no longer exist on the remote service.
func (s *Syncer) purgeRemoved(ctx context.Context, known map[string]bool, subscriptions []domain.Subscription) error {
	current := make(map[string]bool, len(subscriptions))
	for _, sub := range subscriptions {
		current[sub.ID] = true
	}

	var removed int64
	for id := range known {
		if current[id] {
			continue
		}
		count, err := s.store.DeleteArticlesForSubscription(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to purge articles for %s: %w", id, err)
		}
		removed += count
	}
	if removed > 0 {
		log.Printf("[sync] purged %d articles from removed subscriptions", removed)
	}
	return nil
}

// cleanOldRead removes read articles older than the retention window.
func (s *Syncer) cleanOldRead(ctx context.Context) error {
	s.events.step("Cleaning up old articles")
	cutoff := s.now().Add(-s.retention)
	removed, err := s.store.DeleteReadArticlesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old articles: %w", err)
	}
	if removed > 0 {
		log.Printf("[sync] removed %d read articles older than %s", removed, cutoff.Format(time.RFC3339))
	}
	return nil
}

// recomputeUnread recalculates the per-folder and per-subscription
// unread counts and publishes them.
func (s *Syncer) recomputeUnread(ctx context.Context) error {
	s.events.step("Calculating unread counts")

	folders, err := s.store.Folders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	subscriptions, err := s.store.Subscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	counts, err := s.store.UnreadCounts(ctx, folders, subscriptions)
	if err != nil {
		return fmt.Errorf("failed to calculate unread counts: %w", err)
	}
	if s.events.Unread != nil {
		s.events.Unread(counts)
	}
	return nil
}
