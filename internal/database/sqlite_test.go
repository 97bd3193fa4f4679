package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"feedcache/internal/feedcache"
)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteDatabase_Metadata(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		db := newTestDB(t)

		value, ok, err := db.GetMetadata(feedcache.AccessTokenKey)
		if err != nil {
			t.Fatalf("GetMetadata() error = %v", err)
		}
		if ok || value != "" {
			t.Errorf("GetMetadata() = %q, %v; want \"\", false", value, ok)
		}
	})

	t.Run("set and replace", func(t *testing.T) {
		db := newTestDB(t)

		for _, token := range []string{"first-token", "second-token"} {
			if err := db.SetMetadata(feedcache.AccessTokenKey, token); err != nil {
				t.Fatalf("SetMetadata(%q) error = %v", token, err)
			}
			got, ok, err := db.GetMetadata(feedcache.AccessTokenKey)
			if err != nil {
				t.Fatalf("GetMetadata() error = %v", err)
			}
			if !ok || got != token {
				t.Errorf("GetMetadata() = %q, %v; want %q, true", got, ok, token)
			}
		}
	})
}

func TestSQLiteDatabase_SyncRuns(t *testing.T) {
	t.Run("create and finish", func(t *testing.T) {
		db := newTestDB(t)
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		run := &feedcache.SyncRun{ID: "run-1", Trigger: "cron", StartedAt: start}
		if err := db.CreateSyncRun(run); err != nil {
			t.Fatalf("CreateSyncRun() error = %v", err)
		}
		if run.Status != runningStatus {
			t.Errorf("Status = %q, want %q", run.Status, runningStatus)
		}

		runs, err := db.ListSyncRuns(10)
		if err != nil {
			t.Fatalf("ListSyncRuns() error = %v", err)
		}
		if len(runs) != 1 || runs[0].FinishedAt.Valid {
			t.Fatalf("ListSyncRuns() = %+v, want one unfinished run", runs)
		}

		run.FinishedAt = sql.NullTime{Time: start.Add(3 * time.Second), Valid: true}
		run.Status = feedcache.StatusPartial
		run.FeedStatus = 200
		run.LikedStatus = 200
		run.Items = 20
		run.PhotosDownloaded = 4
		run.AvatarsDownloaded = 2
		run.DownloadFailures = 1
		run.Deleted = 3
		if err := db.FinishSyncRun(run); err != nil {
			t.Fatalf("FinishSyncRun() error = %v", err)
		}

		runs, err = db.ListSyncRuns(10)
		if err != nil {
			t.Fatalf("ListSyncRuns() error = %v", err)
		}
		got := runs[0]
		if got.ID != "run-1" || got.Trigger != "cron" {
			t.Errorf("identity = %s/%s, want run-1/cron", got.ID, got.Trigger)
		}
		if !got.StartedAt.Equal(start) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, start)
		}
		if !got.FinishedAt.Valid || !got.FinishedAt.Time.Equal(start.Add(3*time.Second)) {
			t.Errorf("FinishedAt = %+v", got.FinishedAt)
		}
		if got.Status != feedcache.StatusPartial {
			t.Errorf("Status = %q, want %q", got.Status, feedcache.StatusPartial)
		}
		if got.Items != 20 || got.PhotosDownloaded != 4 || got.AvatarsDownloaded != 2 || got.DownloadFailures != 1 || got.Deleted != 3 {
			t.Errorf("counters = %+v", got)
		}
	})

	t.Run("finish unknown run", func(t *testing.T) {
		db := newTestDB(t)

		err := db.FinishSyncRun(&feedcache.SyncRun{ID: "missing", Status: feedcache.StatusSuccess})
		if err == nil {
			t.Error("FinishSyncRun() expected error for unknown run")
		}
	})

	t.Run("newest first with limit", func(t *testing.T) {
		db := newTestDB(t)
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		for i := 0; i < 5; i++ {
			run := &feedcache.SyncRun{
				ID:        fmt.Sprintf("run-%d", i),
				Trigger:   "cron",
				StartedAt: base.Add(time.Duration(i) * 10 * time.Minute),
			}
			if err := db.CreateSyncRun(run); err != nil {
				t.Fatalf("CreateSyncRun() error = %v", err)
			}
		}

		runs, err := db.ListSyncRuns(3)
		if err != nil {
			t.Fatalf("ListSyncRuns() error = %v", err)
		}
		want := []string{"run-4", "run-3", "run-2"}
		if len(runs) != len(want) {
			t.Fatalf("len(runs) = %d, want %d", len(runs), len(want))
		}
		for i, id := range want {
			if runs[i].ID != id {
				t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, id)
			}
		}
	})
}
