package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"feedcache/internal/config"
	"feedcache/internal/database/migrations"
	"feedcache/internal/feedcache"
)

// FileName is the SQLite database file inside the configured data_dir.
const FileName = "feedcache.db"

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
// An in-memory database has nothing to install, so it is migrated immediately.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (feedcache.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		db, err := NewSQLiteDatabase(filepath.Join(cfg.DataDir, FileName))
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// CheckInstalled reports whether the configured database exists and carries
// the current schema, without creating or migrating anything. The SQLite file
// is opened read-only.
func CheckInstalled(cfg config.DatabaseConfig) error {
	switch cfg.Type {
	case "memory":
		return nil
	case "sqlite":
	default:
		return fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	path := filepath.Join(cfg.DataDir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", feedcache.ErrNotInstalled, path)
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := migrations.CheckStoredVersion(db); err != nil {
		return fmt.Errorf("%w: %v", feedcache.ErrNotInstalled, err)
	}
	return nil
}
