package feedcache

import (
	"database/sql"
	"time"
)

// AccessTokenKey is the metadata key holding the API access token.
const AccessTokenKey = "instagram-access-token"

// SyncRun is the persisted record of one reconciliation.
type SyncRun struct {
	ID                string
	Trigger           string
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Status            string
	FeedStatus        int
	LikedStatus       int
	Items             int
	PhotosDownloaded  int
	AvatarsDownloaded int
	DownloadFailures  int
	Deleted           int
}

// Database stores application metadata and the run history.
type Database interface {
	// GetMetadata returns the value for key and whether it was set.
	GetMetadata(key string) (string, bool, error)

	// SetMetadata creates or replaces the value for key.
	SetMetadata(key, value string) error

	// CreateSyncRun records the start of a run.
	CreateSyncRun(run *SyncRun) error

	// FinishSyncRun stores the outcome of a run created with CreateSyncRun.
	FinishSyncRun(run *SyncRun) error

	// ListSyncRuns returns the most recent runs, newest first.
	ListSyncRuns(limit int) ([]*SyncRun, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Migrate brings the schema to the latest version.
	Migrate() error

	// Close closes the database connection.
	Close() error
}
