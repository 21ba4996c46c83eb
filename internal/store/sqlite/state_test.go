package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestLastSync_NeverSynced(t *testing.T) {
	db := testDB(t)

	at, err := db.LastSync(context.Background())
	if err != nil {
		t.Fatalf("LastSync() error: %v", err)
	}
	if !at.IsZero() {
		t.Errorf("LastSync() = %v before any sync, want zero time", at)
	}
}

func TestLastSync_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if err := db.SetLastSync(ctx, first); err != nil {
		t.Fatalf("SetLastSync() error: %v", err)
	}

	// Overwriting leaves exactly one record.
	second := first.Add(time.Hour)
	if err := db.SetLastSync(ctx, second); err != nil {
		t.Fatalf("SetLastSync() error: %v", err)
	}

	at, err := db.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync() error: %v", err)
	}
	if !at.Equal(second) {
		t.Errorf("LastSync() = %v, want %v", at, second)
	}

	var rows int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM last_sync`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("last_sync holds %d rows, want 1", rows)
	}
}

func TestNavigationState_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SaveNavigationState(ctx, map[string]bool{
		"user/-/label/News": true,
		"user/-/label/Tech": false,
	}); err != nil {
		t.Fatalf("SaveNavigationState() error: %v", err)
	}

	expanded, err := db.NavigationState(ctx)
	if err != nil {
		t.Fatalf("NavigationState() error: %v", err)
	}
	if !expanded["user/-/label/News"] {
		t.Error("expected News to be expanded")
	}
	if expanded["user/-/label/Tech"] {
		t.Error("collapsed folders should not be persisted")
	}

	// Saves replace wholesale.
	if err := db.SaveNavigationState(ctx, map[string]bool{}); err != nil {
		t.Fatal(err)
	}
	expanded, err = db.NavigationState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(expanded) != 0 {
		t.Errorf("navigation state = %v after clearing save, want empty", expanded)
	}
}
