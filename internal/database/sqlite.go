package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedcache/internal/database/migrations"
	"feedcache/internal/feedcache"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// runningStatus marks a run that has been created but not finished.
const runningStatus = "running"

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and cron runs
	// are serialized anyway, so a single connection is enough.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Metadata operations

func (s *SQLiteDatabase) GetMetadata(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(context.Background(),
		"SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading metadata %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteDatabase) SetMetadata(key, value string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}

// Sync run tracking

func (s *SQLiteDatabase) CreateSyncRun(run *feedcache.SyncRun) error {
	if run.Status == "" {
		run.Status = runningStatus
	}
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO sync_runs (id, triggered_by, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Trigger, run.StartedAt.UTC(), run.Status)
	if err != nil {
		return fmt.Errorf("creating sync run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FinishSyncRun(run *feedcache.SyncRun) error {
	var finishedAt any
	if run.FinishedAt.Valid {
		finishedAt = run.FinishedAt.Time.UTC()
	}
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE sync_runs SET
			finished_at = ?, status = ?, feed_status = ?, liked_status = ?, items = ?,
			photos_downloaded = ?, avatars_downloaded = ?, download_failures = ?, deleted = ?
		WHERE id = ?`,
		finishedAt, run.Status, run.FeedStatus, run.LikedStatus, run.Items,
		run.PhotosDownloaded, run.AvatarsDownloaded, run.DownloadFailures, run.Deleted,
		run.ID)
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing sync run: no run with id %s", run.ID)
	}
	return nil
}

func (s *SQLiteDatabase) ListSyncRuns(limit int) ([]*feedcache.SyncRun, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, triggered_by, started_at, finished_at, status, feed_status, liked_status,
			items, photos_downloaded, avatars_downloaded, download_failures, deleted
		FROM sync_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*feedcache.SyncRun
	for rows.Next() {
		run := &feedcache.SyncRun{}
		if err := rows.Scan(
			&run.ID, &run.Trigger, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.FeedStatus, &run.LikedStatus, &run.Items, &run.PhotosDownloaded,
			&run.AvatarsDownloaded, &run.DownloadFailures, &run.Deleted,
		); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate runs all pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements feedcache.Database interface
var _ feedcache.Database = (*SQLiteDatabase)(nil)
