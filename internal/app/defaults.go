package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables read by GetDefaults and Token.
const (
	EnvConfigPath  = "FEEDCACHE_CONFIG_PATH"
	EnvHome        = "FEEDCACHE_HOME"
	EnvAccessToken = "FEEDCACHE_ACCESS_TOKEN"
)

// TokenKeyFileName is the age identity inside base_dir that seals the stored
// access token.
const TokenKeyFileName = "token.key"

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FEEDCACHE_CONFIG_PATH: config file location (default: ~/.config/feedcache.toml)
//   - FEEDCACHE_HOME: base directory for feedcache data (default: ~/.local/share/feedcache)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "feedcache.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "feedcache"), nil
}
