package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/media"
	"github.com/pders01/pixa/internal/pixabay"
	"github.com/pders01/pixa/internal/search"
	"github.com/pders01/pixa/internal/storage"
	"github.com/pders01/pixa/internal/tui"
	"github.com/pders01/pixa/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	apiURL     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "pixa",
	Short:         "Browse Pixabay images in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowser,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pixa %s\n", Version)
		fmt.Println(tui.Tagline)
		fmt.Println("github.com/pders01/pixa")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			home, _ := os.UserHomeDir()
			path = filepath.Join(home, ".config", "pixa", "config.toml")
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&apiURL, "api-url", "", "Pixabay API endpoint (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, searchCmd, downloadsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, applies flag overrides and starts logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// The endpoint may be a local mirror, so only the URL shape is checked.
	base, err := validation.NewPermissiveURLValidator().NormalizeBaseURL(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api.base_url: %w", err)
	}
	cfg.API.BaseURL = base

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}

func resolveDBPath(cfg *config.Config) error {
	path, err := validation.NewSecurePathHandler().GetSecureDBPath(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	cfg.Database.Path = path
	return nil
}

// openStore validates the database path and opens the store.
func openStore(cfg *config.Config) (*storage.Store, error) {
	if err := resolveDBPath(cfg); err != nil {
		return nil, err
	}
	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.API.CacheTTL > 0 {
		if n, err := store.PruneCache(cfg.API.CacheTTL); err != nil {
			debuglog.Warnf("pruning response cache: %v", err)
		} else if n > 0 {
			debuglog.Debugf("pruned %d cached responses", n)
		}
	}
	return store, nil
}

// openSearcher prefers the persistent bleve index and falls back to the
// in-memory scorer when the index cannot be opened.
func openSearcher(cfg *config.Config, store *storage.Store) search.Searcher {
	indexPath, err := validation.NewSecurePathHandler().GetSecureIndexPath(cfg.Database.SearchIndex)
	if err == nil {
		engine, openErr := search.NewBleveEngine(store, indexPath)
		if openErr == nil {
			return engine
		}
		err = openErr
	}
	debuglog.Warnf("search index unavailable, using in-memory search: %v", err)
	return search.NewEngine(store)
}

func closeSearcher(s search.Searcher) {
	if c, ok := s.(search.Closer); ok {
		if err := c.Close(); err != nil {
			debuglog.Warnf("closing search index: %v", err)
		}
	}
}

func runBrowser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if err := resolveDBPath(cfg); err != nil {
		return err
	}
	lock := flock.New(validation.LockPath(cfg.Database.Path))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another pixa instance is using %s", cfg.Database.Path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			debuglog.Warnf("releasing instance lock: %v", err)
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !quiet && term.IsTerminal(int(os.Stdout.Fd())) {
		tui.ShowBanner(Version)
	}

	searcher := openSearcher(cfg, store)
	defer closeSearcher(searcher)

	downloadDir, err := validation.NewSecurePathHandler().GetDownloadDir(cfg.Download.Dir)
	if err != nil {
		return fmt.Errorf("invalid download directory: %w", err)
	}
	dlOpts := []media.DownloaderOption{media.WithUserAgent(cfg.API.UserAgent)}
	if l, ok := searcher.(search.DownloadListener); ok {
		dlOpts = append(dlOpts, media.WithListener(l))
	}
	downloader := media.NewDownloader(downloadDir, store, dlOpts...)

	cat := catalog.Default()
	client := pixabay.NewClient(cfg.API, pixabay.WithCache(store))
	session := browse.NewSession(client,
		browse.WithDebounce(cfg.Browse.Debounce),
		browse.WithMinLoading(cfg.Browse.MinLoading),
		browse.WithCatalog(cat),
	)
	debuglog.Infof("starting session %s against %s", session.ID(), client.BaseURL())

	tui.ApplyTheme(cfg.UI.Colors)
	app := tui.NewApp(cfg, session,
		tui.WithCatalog(cat),
		tui.WithDownloader(downloader),
		tui.WithSharer(media.NewSharer()),
		tui.WithOpener(media.NewLauncher(cfg)),
		tui.WithLibrary(store),
		tui.WithSearcher(searcher),
	)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
