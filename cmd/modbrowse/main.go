package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/modbrowse/internal/adapter"
	"github.com/mmcdole/modbrowse/internal/adapter/source"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/imagecache"
	"github.com/mmcdole/modbrowse/internal/install"
	"github.com/mmcdole/modbrowse/internal/progress"
	"github.com/mmcdole/modbrowse/internal/slot"
	"github.com/mmcdole/modbrowse/internal/store"
	"github.com/mmcdole/modbrowse/internal/tui"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configFile  string
	query       string
	clearCache  bool
	initConfig  bool
	showVersion bool
}

func main() {
	v := adapter.NewViper()
	fs := pflag.NewFlagSet("modbrowse", pflag.ExitOnError)

	var opts options
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: search the config directory)")
	fs.StringVarP(&opts.query, "query", "q", "", "initial search query")
	fs.BoolVar(&opts.clearCache, "clear-cache", false, "delete cached icons before starting")
	fs.BoolVar(&opts.initConfig, "init-config", false, "write a config file with the current settings and exit")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "print version")
	if err := adapter.RegisterFlags(fs, v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	_ = fs.Parse(os.Args[1:])

	if opts.showVersion {
		fmt.Printf("modbrowse %s\n", Version)
		return
	}

	if err := run(v, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(v *viper.Viper, opts options) error {
	cfg, err := adapter.LoadConfig(v, opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.initConfig {
		path, err := adapter.SaveConfig(cfg, opts.configFile)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("modbrowse needs a terminal; use modquery for scripted searches")
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)
	logger.Info("starting modbrowse", "version", Version, "source", cfg.Source.Type)

	catalog, err := source.NewCatalog(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	iconStore, err := store.Open(cfg.Cache.Dir, source.CacheKey(cfg))
	if err != nil {
		return fmt.Errorf("failed to open icon cache: %w", err)
	}
	defer iconStore.Close()
	if opts.clearCache {
		if err := iconStore.Clear(); err != nil {
			return fmt.Errorf("failed to clear icon cache: %w", err)
		}
		logger.Info("cleared icon cache")
	}

	pool := worker.NewPool(worker.Config{Workers: cfg.Workers.Count}, logger)
	defer pool.Stop()

	inbox := tui.NewInbox()
	icons, err := imagecache.New(
		imagecache.Config{Capacity: cfg.Cache.IconCapacity},
		store.NewCachedIconSource(iconStore, catalog, logger),
		pool, inbox, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create image cache: %w", err)
	}
	defer icons.Close()

	tasks := progress.NewCounter(inbox, logger)
	installer := install.New(install.Config{
		Dir:       cfg.Install.Dir,
		UserAgent: cfg.Source.UserAgent,
	}, pool, inbox, tasks, logger)

	criteria := domain.SearchCriteria{
		Query:     opts.query,
		Modpacks:  cfg.Search.Modpacks,
		MCVersion: cfg.Search.MCVersion,
	}
	model := tui.NewModel(tui.Services{
		Search:    catalog,
		Details:   catalog,
		Icons:     icons,
		Exec:      pool,
		Inbox:     inbox,
		Issuer:    slot.NewIssuer(logger),
		Tasks:     tasks,
		Installer: installer,
		Launcher:  adapter.NewLauncher(cfg.Open, logger),
		Logger:    logger,
	}, criteria)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down", "icons_cached", icons.Len(), "icon_evictions", icons.Evictions())
	return nil
}
