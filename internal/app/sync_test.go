package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
	"github.com/davep/oldnews/internal/store"
	"github.com/davep/oldnews/internal/store/sqlite"
)

// fakeRemote is a scripted remote.Client for driving the sync engine.
type fakeRemote struct {
	folders       []domain.Folder
	subscriptions []domain.Subscription
	articles      []domain.Article
	unreadIDs     []string

	// pages scripts per-stream article histories for backlog requests.
	pages map[string][]domain.Article

	// failListArticles makes ListArticles fail after the given number
	// of successful pages. Negative means never fail.
	failListArticles int

	listCalls []remote.ListOptions
	added     [][]string
	removed   [][]string
}

func (f *fakeRemote) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	return f.folders, nil
}

func (f *fakeRemote) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return f.subscriptions, nil
}

func (f *fakeRemote) ListArticles(ctx context.Context, opts remote.ListOptions) ([]domain.Article, string, error) {
	f.listCalls = append(f.listCalls, opts)

	source := f.articles
	if opts.StreamID != "" && f.pages != nil {
		source = f.pages[opts.StreamID]
	}

	// Serve one article per page, using the continuation as a cursor.
	start := 0
	if opts.Continuation != "" {
		fmt.Sscanf(opts.Continuation, "%d", &start)
	}
	if f.failListArticles >= 0 && start >= f.failListArticles {
		return nil, "", errors.New("remote failure")
	}
	if start >= len(source) {
		return nil, "", nil
	}
	continuation := ""
	if start+1 < len(source) {
		continuation = fmt.Sprintf("%d", start+1)
	}
	return source[start : start+1], continuation, nil
}

func (f *fakeRemote) ListUnreadIDs(ctx context.Context) ([]string, error) {
	return f.unreadIDs, nil
}

func (f *fakeRemote) AddTag(ctx context.Context, articleIDs []string, tag string) error {
	f.added = append(f.added, articleIDs)
	return nil
}

func (f *fakeRemote) RemoveTag(ctx context.Context, articleIDs []string, tag string) error {
	f.removed = append(f.removed, articleIDs)
	return nil
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failListArticles: -1}
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testArticle(id, subscription string, published time.Time) domain.Article {
	return domain.Article{
		ID:        id,
		Title:     "Title of " + id,
		Published: published,
		Updated:   published,
		Origin: domain.Origin{
			StreamID: subscription,
			Title:    "Feed " + subscription,
			HTMLURL:  "https://example.com/",
		},
	}
}

func testSyncer(s store.Store, r remote.Client, at time.Time) *Syncer {
	syncer := NewSyncer(s, r, 90*24*time.Hour, 10, Events{})
	syncer.now = func() time.Time { return at }
	return syncer
}

func TestRefresh_FirstSync(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	fake := newFakeRemote()
	fake.folders = []domain.Folder{{ID: "user/-/label/News", SortID: "A1"}}
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.articles = []domain.Article{
		testArticle("a1", "feed/1", now.Add(-time.Hour)),
		testArticle("a2", "feed/1", now.Add(-2*time.Hour)),
	}
	// This would mark everything read if reconciliation ran; the first
	// sync has nothing to reconcile so it must be skipped.
	fake.unreadIDs = nil

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	folders, err := db.Folders(ctx)
	if err != nil {
		t.Fatalf("Folders() error: %v", err)
	}
	if len(folders) != 1 {
		t.Errorf("got %d folders, want 1", len(folders))
	}

	articles, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/1"})
	if err != nil {
		t.Fatalf("ListArticles() error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	for _, article := range articles {
		if article.IsRead {
			t.Errorf("article %s marked read on first sync", article.ID)
		}
	}

	// The first sync has no watermark, so it asks for unread articles
	// across the whole reading list.
	first := fake.listCalls[0]
	if !first.ExcludeRead {
		t.Error("first sync should exclude read articles")
	}
	if !first.Since.IsZero() {
		t.Errorf("first sync sent a since watermark: %v", first.Since)
	}

	lastSync, err := db.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync() error: %v", err)
	}
	if !lastSync.Equal(now) {
		t.Errorf("last sync = %v, want %v", lastSync, now)
	}
}

func TestRefresh_IncrementalUsesWatermark(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	lastSync := now.Add(-time.Hour)
	if err := db.SetLastSync(ctx, lastSync); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	if err := db.ReplaceSubscriptions(ctx, fake.subscriptions); err != nil {
		t.Fatal(err)
	}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	first := fake.listCalls[0]
	if first.ExcludeRead {
		t.Error("incremental sync should not exclude read articles")
	}
	if !first.Since.Equal(lastSync) {
		t.Errorf("since = %v, want the previous sync time %v", first.Since, lastSync)
	}
}

func TestRefresh_WatermarkClampedToRetention(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	// A watermark from far beyond the retention window.
	if err := db.SetLastSync(ctx, now.Add(-365*24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	want := now.Add(-90 * 24 * time.Hour)
	if got := fake.listCalls[0].Since; !got.Equal(want) {
		t.Errorf("since = %v, want the retention cutoff %v", got, want)
	}
}

func TestRefresh_ReconcilesReadState(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastSync(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertArticles(ctx, []domain.Article{
		testArticle("a1", "feed/1", now.Add(-3*time.Hour)),
		testArticle("a2", "feed/1", now.Add(-4*time.Hour)),
		testArticle("a3", "feed/1", now.Add(-5*time.Hour)),
	}); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	if err := db.ReplaceSubscriptions(ctx, fake.subscriptions); err != nil {
		t.Fatal(err)
	}
	// Only a2 is still unread remotely; a1 and a3 were read elsewhere.
	fake.unreadIDs = []string{"a2"}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	unread, err := db.UnreadArticleIDs(ctx)
	if err != nil {
		t.Fatalf("UnreadArticleIDs() error: %v", err)
	}
	if len(unread) != 1 || unread[0] != "a2" {
		t.Errorf("unread = %v, want only a2", unread)
	}
}

func TestRefresh_BackfillsNewSubscription(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastSync(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	// feed/1 is already known; feed/2 appears for the first time.
	if err := db.ReplaceSubscriptions(ctx, []domain.Subscription{
		{ID: "feed/1", Title: "Feed One"},
	}); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{
		{ID: "feed/1", Title: "Feed One"},
		{ID: "feed/2", Title: "Feed Two"},
	}
	fake.pages = map[string][]domain.Article{
		"feed/2": {
			testArticle("b1", "feed/2", now.Add(-24*time.Hour)),
			testArticle("b2", "feed/2", now.Add(-48*time.Hour)),
		},
	}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	articles, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/2"})
	if err != nil {
		t.Fatalf("ListArticles() error: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("got %d backlog articles for feed/2, want 2", len(articles))
	}

	// Only the new subscription gets a stream-scoped download, bounded
	// by the retention window.
	var backfills []remote.ListOptions
	for _, call := range fake.listCalls {
		if call.StreamID != "" {
			backfills = append(backfills, call)
		}
	}
	if len(backfills) == 0 {
		t.Fatal("no stream-scoped downloads recorded")
	}
	for _, call := range backfills {
		if call.StreamID != "feed/2" {
			t.Errorf("backlog downloaded for %s, want only feed/2", call.StreamID)
		}
		if want := now.Add(-90 * 24 * time.Hour); !call.Since.Equal(want) {
			t.Errorf("backlog since = %v, want %v", call.Since, want)
		}
	}
}

func TestRefresh_PurgesRemovedSubscription(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastSync(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceSubscriptions(ctx, []domain.Subscription{
		{ID: "feed/1", Title: "Feed One"},
		{ID: "feed/2", Title: "Feed Two"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertArticles(ctx, []domain.Article{
		testArticle("a1", "feed/1", now.Add(-2*time.Hour)),
		testArticle("b1", "feed/2", now.Add(-2*time.Hour)),
	}); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	// feed/2 is gone from the remote service.
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.unreadIDs = []string{"a1", "b1"}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	kept, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 1 {
		t.Errorf("feed/1 has %d articles, want 1", len(kept))
	}
	gone, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(gone) != 0 {
		t.Errorf("feed/2 still has %d articles, want 0", len(gone))
	}
}

func TestRefresh_DropsArticlesWithoutOrigin(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	orphan := testArticle("ghost", "", now.Add(-time.Hour))
	orphan.Origin = domain.Origin{}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.articles = []domain.Article{
		orphan,
		testArticle("a1", "feed/1", now.Add(-2*time.Hour)),
	}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	articles, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].ID != "a1" {
		t.Errorf("articles = %v, want only a1", articles)
	}
}

func TestRefresh_PageFailureKeepsEarlierPages(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	previousSync := now.Add(-time.Hour)
	if err := db.SetLastSync(ctx, previousSync); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.articles = []domain.Article{
		testArticle("a1", "feed/1", now.Add(-10*time.Minute)),
		testArticle("a2", "feed/1", now.Add(-20*time.Minute)),
		testArticle("a3", "feed/1", now.Add(-30*time.Minute)),
	}
	fake.failListArticles = 2

	err := testSyncer(db, fake, now).Refresh(ctx)
	if err == nil {
		t.Fatal("Refresh() should fail when a page fails")
	}

	// Pages stored before the failure survive.
	articles, listErr := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/1"})
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(articles) != 2 {
		t.Errorf("got %d articles, want the 2 pages stored before the failure", len(articles))
	}

	// The watermark must not advance past a failed download.
	lastSync, lsErr := db.LastSync(ctx)
	if lsErr != nil {
		t.Fatal(lsErr)
	}
	if !lastSync.Equal(previousSync) {
		t.Errorf("last sync = %v, want unchanged %v", lastSync, previousSync)
	}
}

func TestRefresh_CleansOldReadArticles(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastSync(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceSubscriptions(ctx, []domain.Subscription{
		{ID: "feed/1", Title: "Feed One"},
	}); err != nil {
		t.Fatal(err)
	}

	oldRead := testArticle("old-read", "feed/1", now.Add(-120*24*time.Hour))
	oldRead.IsRead = true
	oldUnread := testArticle("old-unread", "feed/1", now.Add(-120*24*time.Hour))
	fresh := testArticle("fresh", "feed/1", now.Add(-time.Hour))
	fresh.IsRead = true
	if err := db.UpsertArticles(ctx, []domain.Article{oldRead, oldUnread, fresh}); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.unreadIDs = []string{"old-unread"}

	if err := testSyncer(db, fake, now).Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	articles, err := db.ListArticles(ctx, store.ListArticleOptions{SubscriptionID: "feed/1"})
	if err != nil {
		t.Fatal(err)
	}
	ids := make(map[string]bool)
	for _, article := range articles {
		ids[article.ID] = true
	}
	if ids["old-read"] {
		t.Error("read article beyond retention should be removed")
	}
	if !ids["old-unread"] {
		t.Error("unread article beyond retention should be kept")
	}
	if !ids["fresh"] {
		t.Error("recent read article should be kept")
	}
}

func TestRefresh_ReportsEvents(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	fake := newFakeRemote()
	fake.folders = []domain.Folder{{ID: "user/-/label/News", SortID: "A1"}}
	fake.subscriptions = []domain.Subscription{{ID: "feed/1", Title: "Feed One"}}
	fake.articles = []domain.Article{testArticle("a1", "feed/1", now.Add(-time.Hour))}

	var steps []string
	var gotFolders []domain.Folder
	var gotCounts domain.UnreadCounts
	finished := false

	syncer := NewSyncer(db, fake, 90*24*time.Hour, 10, Events{
		Step:    func(description string) { steps = append(steps, description) },
		Folders: func(folders []domain.Folder) { gotFolders = folders },
		Unread:  func(counts domain.UnreadCounts) { gotCounts = counts },
		Finished: func() {
			finished = true
		},
	})
	syncer.now = func() time.Time { return now }

	if err := syncer.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	if len(steps) == 0 || steps[0] != "Getting folder list" {
		t.Errorf("steps = %v, want to start with the folder list", steps)
	}
	if len(gotFolders) != 1 {
		t.Errorf("folders event carried %d folders, want 1", len(gotFolders))
	}
	if gotCounts["feed/1"] != 1 {
		t.Errorf("unread event carried %v, want 1 unread for feed/1", gotCounts)
	}
	if !finished {
		t.Error("finished event never fired")
	}
}

func TestQueries_MarkReadUpdatesBothSides(t *testing.T) {
	ctx := context.Background()
	db := testStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := db.UpsertArticles(ctx, []domain.Article{
		testArticle("a1", "feed/1", now.Add(-time.Hour)),
	}); err != nil {
		t.Fatal(err)
	}

	fake := newFakeRemote()
	queries := NewQueries(db, fake)

	if err := queries.MarkRead(ctx, []string{"a1"}); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	unread, err := db.UnreadArticleIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 0 {
		t.Errorf("unread = %v, want none", unread)
	}
	if len(fake.added) != 1 || len(fake.added[0]) != 1 || fake.added[0][0] != "a1" {
		t.Errorf("remote tag adds = %v, want a1", fake.added)
	}

	if err := queries.MarkUnread(ctx, []string{"a1"}); err != nil {
		t.Fatalf("MarkUnread() error: %v", err)
	}
	unread, err = db.UnreadArticleIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 1 {
		t.Errorf("unread = %v, want a1 back", unread)
	}
	if len(fake.removed) != 1 {
		t.Errorf("remote tag removes = %v, want one call", fake.removed)
	}
}
