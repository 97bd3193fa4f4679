package main

import (
	"os"
	"path/filepath"
	"testing"

	"feedcache/internal/app"
	"feedcache/internal/config"
)

func TestSyncCmd_NotInstalled(t *testing.T) {
	home := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "feedcache.toml")
	t.Setenv(app.EnvConfigPath, configPath)
	t.Setenv(app.EnvHome, home)

	if err := config.Init(configPath, config.NewConfig(home)); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}

	rootCmd.SetArgs([]string{"sync"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sync error = %v, want nil", err)
	}

	entries, err := os.ReadDir(home)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("sync left %s behind in an uninstalled base dir", e.Name())
	}
}

func TestSyncCmd_NoConfig(t *testing.T) {
	t.Setenv(app.EnvConfigPath, filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv(app.EnvHome, t.TempDir())

	rootCmd.SetArgs([]string{"sync"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("sync without config error = %v, want nil", err)
	}
}
