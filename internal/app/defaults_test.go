package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	homeBase := filepath.Join(home, ".local", "share", "feedcache")

	tests := []struct {
		name       string
		configPath string
		baseDir    string
		want       map[string]string
	}{
		{
			name:       "environment overrides",
			configPath: "/etc/feedcache/feedcache.toml",
			baseDir:    "/srv/feedcache",
			want: map[string]string{
				"config_path": "/etc/feedcache/feedcache.toml",
				"base_dir":    "/srv/feedcache",
				"log_dir":     "/srv/feedcache/log",
			},
		},
		{
			name: "home directory fallback",
			want: map[string]string{
				"config_path": filepath.Join(home, ".config", "feedcache.toml"),
				"base_dir":    homeBase,
				"log_dir":     filepath.Join(homeBase, "log"),
			},
		},
		{
			name:    "only the base dir overridden",
			baseDir: "/var/cache/feedcache",
			want: map[string]string{
				"config_path": filepath.Join(home, ".config", "feedcache.toml"),
				"base_dir":    "/var/cache/feedcache",
				"log_dir":     "/var/cache/feedcache/log",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, tt.configPath)
			t.Setenv(EnvHome, tt.baseDir)

			got, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("%s = %q, want %q", key, got[key], want)
				}
			}
		})
	}
}
