package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) (context.Context, *sqliteCache) {
	t.Helper()
	ctx := context.Background()
	c, err := Open(ctx, filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return ctx, c.(*sqliteCache)
}

func TestSQLiteGetPut(t *testing.T) {
	ctx, c := openTestCache(t)

	if _, found, err := c.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Empty cache: found=%v err=%v", found, err)
	}

	if err := c.Put(ctx, "k", []byte(`{"text":"hello"}`)); err != nil {
		t.Fatal(err)
	}
	payload, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if string(payload) != `{"text":"hello"}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestSQLitePutReplaces(t *testing.T) {
	ctx, c := openTestCache(t)

	if err := c.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	payload, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if string(payload) != "v2" {
		t.Errorf("payload = %s, want v2", payload)
	}

	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM annotations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after replace, got %d", count)
	}
}

func TestSQLitePrune(t *testing.T) {
	ctx, c := openTestCache(t)

	if err := c.Put(ctx, "old", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "also-old", []byte("2")); err != nil {
		t.Fatal(err)
	}

	removed, err := c.Prune(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, found, _ := c.Get(ctx, "old"); found {
		t.Error("Pruned entry still present")
	}

	if err := c.Put(ctx, "fresh", []byte("3")); err != nil {
		t.Fatal(err)
	}
	removed, err = c.Prune(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "k", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	payload, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if string(payload) != "persisted" {
		t.Errorf("payload = %s", payload)
	}
}
