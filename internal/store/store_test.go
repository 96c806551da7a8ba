package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inboxbrief/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "inboxbrief.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	if store.db == nil {
		t.Error("Store database should not be nil")
	}
	if _, err := os.Stat(store.Path()); os.IsNotExist(err) {
		t.Error("Database file should be created")
	}
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file.txt")
	_ = os.WriteFile(blocker, []byte("test"), 0644)

	if _, err := NewStore(filepath.Join(blocker, "inboxbrief.db")); err == nil {
		t.Error("Expected error when creating store under a file")
	}
}

func TestProperties(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "PROCESSED_MESSAGE_IDS"); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "PROCESSED_MESSAGE_IDS", `["a"]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "PROCESSED_MESSAGE_IDS", `["a","b"]`); err != nil {
		t.Fatalf("Set (update) failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "PROCESSED_MESSAGE_IDS")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if value != `["a","b"]` {
		t.Errorf("Expected upserted value, got %s", value)
	}

	if err := store.Delete(ctx, "PROCESSED_MESSAGE_IDS"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "PROCESSED_MESSAGE_IDS"); ok {
		t.Error("Expected key to be deleted")
	}
	if err := store.Delete(ctx, "absent"); err != nil {
		t.Errorf("Deleting a missing key should succeed, got %v", err)
	}
}

func TestRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 10, 20, 7, 0, 0, 0, time.UTC)

	older := &core.RunRecord{StartedAt: base.Add(-24 * time.Hour), FinishedAt: base.Add(-24*time.Hour + time.Minute), Candidates: 3, Summarized: 1}
	newer := &core.RunRecord{
		StartedAt:  base,
		FinishedAt: base.Add(2 * time.Minute),
		Candidates: 5,
		Summarized: 3,
		Skipped:    1,
		Failed:     1,
		Themes:     []string{"AI & ML", "Finance"},
	}

	for _, run := range []*core.RunRecord{older, newer} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		if run.ID == "" {
			t.Error("SaveRun should assign an ID")
		}
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != newer.ID || got.Summarized != 3 || got.Skipped != 1 || got.Failed != 1 {
		t.Errorf("Unexpected newest run %+v", got)
	}
	if len(got.Themes) != 2 || got.Themes[0] != "AI & ML" {
		t.Errorf("Unexpected themes %v", got.Themes)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("Expected start %v, got %v", base, got.StartedAt)
	}

	limited, err := store.RecentRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Expected 1 run with limit, got %d (err %v)", len(limited), err)
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "k", "v")
	_ = store.SaveRun(ctx, &core.RunRecord{StartedAt: time.Now(), FinishedAt: time.Now()})

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.PropertyCount != 1 || stats.RunCount != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Size == 0 {
		t.Error("Expected non-zero database size")
	}
}

func TestCleanupOldRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.SaveRun(ctx, &core.RunRecord{StartedAt: now.Add(-48 * time.Hour), FinishedAt: now.Add(-48 * time.Hour)})
	_ = store.SaveRun(ctx, &core.RunRecord{StartedAt: now, FinishedAt: now})

	removed, err := store.CleanupOldRuns(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldRuns failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 run removed, got %d", removed)
	}
}
