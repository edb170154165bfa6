package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sbtup/internal/config"
	"sbtup/internal/crawler"
	"sbtup/internal/extractor"
	"sbtup/internal/index"
	"sbtup/internal/pipeline"
	"sbtup/internal/registry"
	"sbtup/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:           "sbtup",
		Short:         "Find and apply dependency updates in sbt builds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	historyDB  string
	colorMode  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "Path to the update history database (SQLite); overrides history.path")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if historyDB != "" {
		cfg.History.Path = historyDB
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// env holds what every command needs.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	indexer  *index.Indexer
	pipeline *pipeline.Pipeline
	history  *storage.SQLiteStore
}

func (e *env) Close() {
	if e.history != nil {
		e.history.Close()
	}
}

// setup wires config, logging, the registry client and the pipeline. The
// history store is opened only when withHistory is set and a path is
// configured.
func setup(cmd *cobra.Command, withHistory bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	ext, err := extractor.NewExtractor("sbt")
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	cr := crawler.NewCrawler(ext, crawler.Options{Logger: logger})
	idx := index.NewIndexer(cr)

	client := registry.NewClient(cfg.Registry.BaseURL,
		registry.WithTimeout(cfg.Registry.Timeout),
		registry.WithConcurrency(cfg.Registry.Concurrency),
		registry.WithCacheSize(cfg.Registry.CacheSize),
		registry.WithLogger(logger),
	)

	e := &env{cfg: cfg, logger: logger, indexer: idx}
	opts := pipeline.Options{
		Indexer:  idx,
		Versions: client,
		Logger:   logger,
		Out:      cmd.ErrOrStderr(),
	}
	if withHistory && cfg.History.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		e.history = store
		opts.History = store
	}
	e.pipeline = pipeline.New(opts)
	return e, nil
}

// projectRoot picks the positional path, then project.root from config.
func projectRoot(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg.Project.Root != "" {
		return cfg.Project.Root
	}
	return "."
}
