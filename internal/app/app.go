package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"feedcache/internal/config"
	"feedcache/internal/database"
	"feedcache/internal/encryption"
	"feedcache/internal/feedcache"
	"feedcache/internal/instagram"
	"feedcache/internal/store"
)

// App is the application layer between the CLI or HTTP server and the
// reconciliation engine. It constructs all dependencies from config, guards
// and records sync runs, and manages the DB lifecycle on Close.
type App struct {
	cfg     *config.Config
	db      feedcache.Database
	store   feedcache.AssetStore
	fetcher feedcache.Fetcher
	logger  feedcache.Logger
	clock   feedcache.Clock
	ids     feedcache.IDGenerator
	sealer  *encryption.TokenSealer
	logFile *os.File
}

// New creates a fully wired App from the given config. verbose enables debug
// logging. The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, verbose bool) (*App, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	st, err := store.NewStoreFromConfig(ctx, cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating asset store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	fetcher, err := instagram.NewClient(cfg.API.Timeout.Duration, cfg.Proxy, logger)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	return &App{
		cfg:     cfg,
		db:      db,
		store:   st,
		fetcher: fetcher,
		logger:  logger,
		clock:   feedcache.RealClock{},
		ids:     feedcache.UUIDGenerator{},
		sealer:  encryption.NewTokenSealer(filepath.Join(cfg.BaseDir, TokenKeyFileName)),
		logFile: logFile,
	}, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the App's logger.
func (a *App) Logger() feedcache.Logger {
	return a.logger
}

func (a *App) reconcilerOptions() feedcache.Options {
	return feedcache.Options{
		FeedEndpoint:  a.cfg.API.FeedEndpoint,
		LikedEndpoint: a.cfg.API.LikedEndpoint,
		MaxItems:      a.cfg.Sync.MaxItems,
		Layout: feedcache.Layout{
			PublicPrefix: a.cfg.Layout.PublicPrefix,
			PhotosDir:    a.cfg.Layout.PhotosDir,
			UsersDir:     a.cfg.Layout.UsersDir,
			AssetExt:     a.cfg.Layout.AssetExt,
		},
		PhotoManifest:        a.cfg.Manifests.Photos,
		UserManifest:         a.cfg.Manifests.Users,
		Keep:                 a.cfg.Layout.Keep,
		AbortOnDownloadError: a.cfg.Sync.AbortOnDownloadError,
	}
}

// Installed returns an error wrapping feedcache.ErrNotInstalled unless the
// database schema is current and the store is reachable.
func (a *App) Installed(ctx context.Context) error {
	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("%w: %v", feedcache.ErrNotInstalled, err)
	}
	if err := a.store.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("%w: %v", feedcache.ErrNotInstalled, err)
	}
	return nil
}

// CheckInstalled is the side-effect-free counterpart of Installed, for use
// before New: New creates the log file, the data dir and the store root. It
// wraps feedcache.ErrNotInstalled when the database is missing or unmigrated,
// or when a filesystem store has no root directory yet.
func CheckInstalled(cfg *config.Config) error {
	if err := database.CheckInstalled(cfg.Database); err != nil {
		return err
	}
	switch cfg.Store.Type {
	case "filesystem", "":
		info, err := os.Stat(cfg.Store.Root)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: store root %s does not exist", feedcache.ErrNotInstalled, cfg.Store.Root)
		}
		if err != nil {
			return fmt.Errorf("checking store root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: store root %s is not a directory", feedcache.ErrNotInstalled, cfg.Store.Root)
		}
	}
	return nil
}

// Install migrates the database, checks the store, creates the token key and
// seeds empty manifests so the display surface has something to read before
// the first sync. Running it again is harmless.
func (a *App) Install(ctx context.Context) error {
	if err := a.db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if err := a.store.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("checking asset store: %w", err)
	}
	if err := a.sealer.Setup(); err != nil {
		return fmt.Errorf("creating token key: %w", err)
	}

	empty, err := feedcache.EncodeManifest([]any{})
	if err != nil {
		return err
	}
	for _, key := range []string{a.cfg.Manifests.Photos, a.cfg.Manifests.Users} {
		exists, err := a.store.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("checking %s: %w", key, err)
		}
		if exists {
			continue
		}
		if err := a.store.Put(ctx, key, bytes.NewReader(empty), int64(len(empty))); err != nil {
			return fmt.Errorf("seeding %s: %w", key, err)
		}
		_ = a.store.Relax(ctx, key)
	}

	a.logger.Info("feedcache installed")
	return nil
}

// SetToken encrypts and stores the API access token.
func (a *App) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("access token must not be empty")
	}
	if err := a.sealer.Setup(); err != nil {
		return fmt.Errorf("creating token key: %w", err)
	}
	sealed, err := a.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}
	if err := a.db.SetMetadata(feedcache.AccessTokenKey, sealed); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	return nil
}

// Token returns the API access token. FEEDCACHE_ACCESS_TOKEN overrides the
// stored value.
func (a *App) Token() (string, bool, error) {
	if token := os.Getenv(EnvAccessToken); token != "" {
		return token, true, nil
	}
	sealed, ok, err := a.db.GetMetadata(feedcache.AccessTokenKey)
	if err != nil {
		return "", false, fmt.Errorf("reading access token: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	token, err := a.sealer.Open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("decrypting access token: %w", err)
	}
	return token, true, nil
}

// Sync runs one reconciliation and records it in the history. trigger names
// what started the run, such as "cron" or "http".
//
// It returns an error wrapping feedcache.ErrNotInstalled before touching
// anything when the cache is not installed, and feedcache.ErrSyncInProgress
// when another run holds the lock. A run that fails to write its manifests
// is recorded as failed and its error returned.
func (a *App) Sync(ctx context.Context, trigger string) (*feedcache.RunResult, error) {
	if err := a.Installed(ctx); err != nil {
		return nil, err
	}

	lock, err := acquireRunLock(filepath.Join(a.cfg.BaseDir, LockFileName))
	if err != nil {
		if errors.Is(err, feedcache.ErrSyncInProgress) {
			a.logger.Warn("sync already in progress", "trigger", trigger)
		}
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release sync lock", "error", err)
		}
	}()

	token, ok, err := a.Token()
	if err != nil {
		return nil, err
	}
	if !ok {
		a.logger.Warn("no access token configured, run `feedcache token set`")
	}

	run := &feedcache.SyncRun{ID: a.ids.New(), Trigger: trigger, StartedAt: a.clock.Now()}
	if err := a.db.CreateSyncRun(run); err != nil {
		return nil, fmt.Errorf("recording sync run: %w", err)
	}
	a.logger.Info("sync started", "run_id", run.ID, "trigger", trigger)

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Sync.Timeout.Duration)
	defer cancel()

	reconciler := feedcache.NewReconciler(a.reconcilerOptions(), a.fetcher, a.store, a.logger)
	result, runErr := reconciler.Run(runCtx, token)

	run.FinishedAt = sql.NullTime{Time: a.clock.Now(), Valid: true}
	run.Status = result.Status()
	if result != nil {
		run.FeedStatus = result.FeedStatus
		run.LikedStatus = result.LikedStatus
		run.Items = result.Items
		run.PhotosDownloaded = result.PhotosDownloaded
		run.AvatarsDownloaded = result.AvatarsDownloaded
		run.DownloadFailures = result.DownloadFailures
		run.Deleted = len(result.Deleted)
	}
	if err := a.db.FinishSyncRun(run); err != nil {
		a.logger.Error("failed to record sync run", "run_id", run.ID, "error", err)
		if runErr == nil {
			return result, fmt.Errorf("recording sync run: %w", err)
		}
	}

	if runErr != nil {
		a.logger.Error("sync failed", "run_id", run.ID, "error", runErr)
		return nil, runErr
	}
	return result, nil
}

// History returns the most recent sync runs, newest first.
func (a *App) History(limit int) ([]*feedcache.SyncRun, error) {
	return a.db.ListSyncRuns(limit)
}

// Status compares the stored manifests with the cached assets.
func (a *App) Status(ctx context.Context) (*feedcache.CacheStatus, error) {
	return feedcache.Inspect(ctx, a.store, a.reconcilerOptions())
}

// Manifest returns the stored bytes of the manifest under key.
// A missing manifest yields an error wrapping feedcache.ErrAssetNotFound.
func (a *App) Manifest(ctx context.Context, key string) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.store.Get(ctx, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close closes the database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
