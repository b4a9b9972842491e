package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelver/internal/archive"
	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/relocate"
	"shelver/internal/scraper"
	"shelver/internal/store"
	"shelver/internal/titles"
	"shelver/internal/tmdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

// withArchiver wires the orchestrator from configuration. A missing title
// table yields an empty registry so enqueue and cfg commands still work; runs
// then fail on the first task with the unknown-key error.
func (c *commandContext) withArchiver(fn func(*archive.Archiver, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	deps := archive.Dependencies{
		Scraper:  scraper.NewRunner(cfg),
		Notifier: notifications.NewService(cfg),
		Logger:   logger,
	}
	client, err := tmdb.New(tmdb.Credentials{APIKey: cfg.TMDB.APIKey, Token: cfg.TMDB.APIToken}, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	switch {
	case err == nil:
		deps.Namer = client
	case errors.Is(err, tmdb.ErrNoCredentials):
		logger.Debug("tmdb lookup disabled; show names come from task tags")
	default:
		return fmt.Errorf("tmdb client: %w", err)
	}

	return c.withStore(func(st *store.Store) error {
		arch, err := archive.New(st, registry, archive.OptionsFromConfig(cfg), deps)
		if err != nil {
			return err
		}
		return fn(arch, st)
	})
}

func loadRegistry(cfg *config.Config, logger *slog.Logger) (*relocate.Registry, error) {
	opts := relocate.Options{Overwrite: cfg.Library.OverwriteExisting}
	registry, list, err := titles.LoadRegistry(cfg.Titles.Path, opts)
	if err == nil {
		logger.Debug("title table loaded",
			logging.String("path", cfg.Titles.Path),
			logging.Int("titles", len(list)),
		)
		return registry, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	logging.WarnWithContext(logger, "title table missing", "title_table_missing",
		logging.String("path", cfg.Titles.Path),
		logging.String(logging.FieldErrorHint, "create one with `shelver titles init`"),
		logging.String(logging.FieldImpact, "every task fails dispatch until titles are defined"),
	)
	registry = relocate.NewRegistry()
	registry.Freeze()
	return registry, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
