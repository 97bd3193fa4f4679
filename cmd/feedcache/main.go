package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"feedcache/internal/app"
	"feedcache/internal/config"
	"feedcache/internal/feedcache"
	"feedcache/internal/server"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file named by the defaults.
func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	path := defaults["config_path"]

	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("reading config: %w", err)
	}
	return cfg, path, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp(ctx context.Context, verbose bool) (*app.App, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var rootCmd = &cobra.Command{
	Use:          "feedcache",
	Short:        "Mirror an Instagram feed into a local asset cache",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Store Root: %s\n", cfg.Store.Root)
		fmt.Println("Next: `feedcache install`, then `feedcache token set <token>`")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Println(renderTable(
			[]string{"Setting", "Value"},
			configRows(cfg),
			[]columnAlignment{alignLeft, alignLeft},
		))
		return nil
	},
}

// install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Create the cache and migrate the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Install(ctx); err != nil {
			return fmt.Errorf("install failed: %w", err)
		}
		fmt.Println("feedcache installed")
		return nil
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API access token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set TOKEN",
	Short: "Store the API access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetToken(args[0]); err != nil {
			return err
		}
		fmt.Println("Access token stored.")
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured access token, masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		token, ok, err := a.Token()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No access token configured.")
			return nil
		}
		fmt.Println(maskToken(token))
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the feed into the cache",
	Long: `Fetch the feed and liked media, cache the newest photos and avatars,
rewrite the manifests and remove assets nothing references any more.

Meant to run from cron. Without a config file or before install it does
nothing and exits successfully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg, _, err := readConfig()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		// New creates files, so an uninstalled cache is detected first.
		if err := app.CheckInstalled(cfg); err != nil {
			if errors.Is(err, feedcache.ErrNotInstalled) {
				return nil
			}
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		a, err := app.New(ctx, cfg, verbose)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		result, err := a.Sync(ctx, "cli")
		switch {
		case errors.Is(err, feedcache.ErrNotInstalled), errors.Is(err, feedcache.ErrSyncInProgress):
			return nil
		case err != nil:
			if asJSON {
				printJSON(feedcache.NewAPIStatusResponse(nil))
			}
			return err
		}

		if asJSON {
			printJSON(feedcache.NewAPIStatusResponse(result))
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the manifests and a sync trigger over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config()
		if addr == "" {
			addr = cfg.Server.ListenAddr
		}

		srv := server.New(a, cfg.Manifests.Photos, cfg.Manifests.Users, a.Logger())
		fmt.Printf("Listening on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded.")
			return nil
		}

		fmt.Println(renderTable(historyHeaders, historyRows(runs), historyAligns))
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the manifests with the cached assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Installed(ctx); err != nil {
			return err
		}
		status, err := a.Status(ctx)
		if err != nil {
			return err
		}

		fmt.Println(renderTable(
			[]string{"Photos", "Users", "Cached assets"},
			[][]string{{strconv.Itoa(status.Photos), strconv.Itoa(status.Users), strconv.Itoa(status.Assets)}},
			[]columnAlignment{alignRight, alignRight, alignRight},
		))
		for _, key := range status.Missing {
			fmt.Printf("missing  %s\n", key)
		}
		for _, key := range status.Orphans {
			fmt.Printf("orphan   %s\n", key)
		}
		if status.Consistent() {
			fmt.Println("Cache matches the manifests.")
		}
		return nil
	},
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(v)
}

// maskToken keeps the last four characters of token.
func maskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return "****"
	}
	return "****" + token[len(token)-visible:]
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// token subcommands
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("json", false, "Print the API status payload")
	syncCmd.Flags().BoolP("verbose", "v", false, "Log debug detail")
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolP("verbose", "v", false, "Log debug detail")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(statusCmd)
}
