package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFeedEndpoint  = "https://api.instagram.com/v1/users/self/feed"
	DefaultLikedEndpoint = "https://api.instagram.com/v1/users/self/media/liked"
	DefaultAPITimeout    = 30 * time.Second
	DefaultSyncTimeout   = 5 * time.Minute
	DefaultMaxItems      = 20
	DefaultPublicPrefix  = "../store/cached"
	DefaultPhotosDir     = "instagram-photos"
	DefaultUsersDir      = "instagram-users"
	DefaultAssetExt      = ".jpg"
	DefaultPhotoManifest = "instagram-photos.json"
	DefaultUserManifest  = "instagram-users.json"
	DefaultListenAddr    = "127.0.0.1:8080"
)

// Config represents the main configuration for feedcache.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	API       APIConfig       `toml:"api"`
	Proxy     ProxyConfig     `toml:"proxy"`
	Sync      SyncConfig      `toml:"sync"`
	Store     StoreConfig     `toml:"store"`
	Layout    LayoutConfig    `toml:"layout"`
	Manifests ManifestsConfig `toml:"manifests"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// Duration is a time.Duration written as a string such as "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// APIConfig holds the two feed endpoints and the per-request timeout.
type APIConfig struct {
	FeedEndpoint  string   `toml:"feed_endpoint"`
	LikedEndpoint string   `toml:"liked_endpoint"`
	Timeout       Duration `toml:"timeout"`
}

// ProxyConfig routes outbound requests through an HTTP proxy.
// An empty URL falls back to the HTTP_PROXY/HTTPS_PROXY environment.
type ProxyConfig struct {
	URL      string `toml:"url,omitempty"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
}

type SyncConfig struct {
	MaxItems             int      `toml:"max_items"`
	Timeout              Duration `toml:"timeout"`
	AbortOnDownloadError bool     `toml:"abort_on_download_error"`
}

// StoreConfig represents configuration for the asset store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "filesystem", "memory", or "s3"
	Name string `toml:"name"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// LayoutConfig decides asset names inside the store and the prefix the
// display surface uses to reach them.
type LayoutConfig struct {
	PublicPrefix string   `toml:"public_prefix"`
	PhotosDir    string   `toml:"photos_dir"`
	UsersDir     string   `toml:"users_dir"`
	AssetExt     string   `toml:"asset_ext"`
	Keep         []string `toml:"keep,omitempty"`
}

type ManifestsConfig struct {
	Photos string `toml:"photos"`
	Users  string `toml:"users"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// NewConfig creates a new Config rooted at baseDir with every default filled in.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type: "filesystem",
			Name: "local",
			Root: filepath.Join(baseDir, "cached"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset value that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.API.FeedEndpoint == "" {
		c.API.FeedEndpoint = DefaultFeedEndpoint
	}
	if c.API.LikedEndpoint == "" {
		c.API.LikedEndpoint = DefaultLikedEndpoint
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout.Duration = DefaultAPITimeout
	}
	if c.Sync.MaxItems == 0 {
		c.Sync.MaxItems = DefaultMaxItems
	}
	if c.Sync.Timeout.Duration == 0 {
		c.Sync.Timeout.Duration = DefaultSyncTimeout
	}
	if c.Layout.PublicPrefix == "" {
		c.Layout.PublicPrefix = DefaultPublicPrefix
	}
	if c.Layout.PhotosDir == "" {
		c.Layout.PhotosDir = DefaultPhotosDir
	}
	if c.Layout.UsersDir == "" {
		c.Layout.UsersDir = DefaultUsersDir
	}
	if c.Layout.AssetExt == "" {
		c.Layout.AssetExt = DefaultAssetExt
	}
	if c.Manifests.Photos == "" {
		c.Manifests.Photos = DefaultPhotoManifest
	}
	if c.Manifests.Users == "" {
		c.Manifests.Users = DefaultUserManifest
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if c.Sync.MaxItems < 0 {
		return fmt.Errorf("sync.max_items must not be negative, got %d", c.Sync.MaxItems)
	}
	if c.Sync.Timeout.Duration < 0 || c.API.Timeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Manifests.Photos == c.Manifests.Users {
		return fmt.Errorf("manifests.photos and manifests.users must differ, both are %q", c.Manifests.Photos)
	}
	if c.Layout.PhotosDir == c.Layout.UsersDir {
		return fmt.Errorf("layout.photos_dir and layout.users_dir must differ, both are %q", c.Layout.PhotosDir)
	}
	if filepath.Ext(c.Manifests.Photos) == c.Layout.AssetExt || filepath.Ext(c.Manifests.Users) == c.Layout.AssetExt {
		return fmt.Errorf("manifest names must not use the asset extension %q", c.Layout.AssetExt)
	}
	switch c.Store.Type {
	case "filesystem", "":
		if c.Store.Root == "" {
			return fmt.Errorf("store.root is required for a filesystem store")
		}
	case "s3":
		if c.Store.S3Bucket == "" {
			return fmt.Errorf("store.s3_bucket is required for an s3 store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("database.data_dir is required for a sqlite database")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type: %s", c.Database.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and fills in defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path. The file may hold
// proxy and storage credentials, so it is only readable by its owner.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
