package store

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "oldnews.db"))
	touch(t, filepath.Join(dir, "oldnews.db-wal"))
	touch(t, filepath.Join(dir, "oldnews.db-shm"))
	touch(t, filepath.Join(dir, "oldnews.log"))
	touch(t, filepath.Join(dir, ".token"))
	touch(t, filepath.Join(dir, "keepme.txt"))

	if err := Reset(dir, false); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	for _, name := range []string{"oldnews.db", "oldnews.db-wal", "oldnews.db-shm", "oldnews.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".token")); err != nil {
		t.Error("token should survive a reset without logout")
	}
	if _, err := os.Stat(filepath.Join(dir, "keepme.txt")); err != nil {
		t.Error("unrelated files should survive a reset")
	}
}

func TestReset_Logout(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "oldnews.db"))
	touch(t, filepath.Join(dir, ".token"))

	if err := Reset(dir, true); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".token")); !os.IsNotExist(err) {
		t.Error("token should be removed on logout")
	}
}

func TestReset_EmptyDirectory(t *testing.T) {
	if err := Reset(t.TempDir(), true); err != nil {
		t.Fatalf("Reset() on an empty directory error: %v", err)
	}
}
