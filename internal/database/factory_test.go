package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"feedcache/internal/config"
	"feedcache/internal/feedcache"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database is migrated", func(t *testing.T) {
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "db")
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dataDir})
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		// A fresh file database is not installed until migrated.
		if err := got.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() on fresh database expected error")
		}
		if err := got.Migrate(); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() after Migrate error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(dataDir, FileName)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite"})
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "unknown"})
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})
}

func TestCheckInstalled(t *testing.T) {
	tests := []struct {
		name          string
		prepare       func(t *testing.T, dataDir string)
		typ           string
		wantInstalled bool
	}{
		{
			name:    "missing data_dir",
			prepare: func(*testing.T, string) {},
			typ:     "sqlite",
		},
		{
			name: "database never migrated",
			prepare: func(t *testing.T, dataDir string) {
				db, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dataDir})
				if err != nil {
					t.Fatal(err)
				}
				db.Close()
			},
			typ: "sqlite",
		},
		{
			name: "migrated database",
			prepare: func(t *testing.T, dataDir string) {
				db, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dataDir})
				if err != nil {
					t.Fatal(err)
				}
				defer db.Close()
				if err := db.Migrate(); err != nil {
					t.Fatal(err)
				}
			},
			typ:           "sqlite",
			wantInstalled: true,
		},
		{
			name:          "memory database",
			prepare:       func(*testing.T, string) {},
			typ:           "memory",
			wantInstalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := filepath.Join(t.TempDir(), "db")
			tt.prepare(t, dataDir)
			before := listDir(t, filepath.Dir(dataDir))

			err := CheckInstalled(config.DatabaseConfig{Type: tt.typ, DataDir: dataDir})
			if tt.wantInstalled && err != nil {
				t.Errorf("CheckInstalled() error = %v", err)
			}
			if !tt.wantInstalled && !errors.Is(err, feedcache.ErrNotInstalled) {
				t.Errorf("CheckInstalled() error = %v, want ErrNotInstalled", err)
			}

			after := listDir(t, filepath.Dir(dataDir))
			if len(after) != len(before) {
				t.Errorf("CheckInstalled() changed the directory: before %v, after %v", before, after)
			}
		})
	}
}

// listDir returns every path below root.
func listDir(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return paths
}
