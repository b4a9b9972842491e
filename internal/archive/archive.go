package archive

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/relocate"
	"shelver/internal/scraper"
	"shelver/internal/store"
)

// Run stages, in execution order. They label logs, errors and notifications.
const (
	StageAcquireLock   = "acquire_lock"
	StageSelectTask    = "select_task"
	StageMarkDoing     = "mark_doing"
	StageResolvePolicy = "resolve_policy"
	StageRelocate      = "relocate"
	StageScrape        = "scrape"
	StageMarkDone      = "mark_done"
	StageReleaseLock   = "release_lock"
	StageCreateCfg     = "create_cfg"
	StageEnqueue       = "enqueue"
)

// Namer resolves the library display name of a show.
type Namer interface {
	ShowName(ctx context.Context, contentID int64) (string, error)
}

// Options controls lock naming and the destination layout.
type Options struct {
	LockName            string
	LockTTL             time.Duration
	CfgLockName         string
	CfgLockTTL          time.Duration
	SeasonDirFormat     string
	WriteShowNFO        bool
	DefaultDocumentPath string
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LockName:            cfg.Locks.ArchiveName,
		LockTTL:             cfg.ArchiveLockTTL(),
		CfgLockName:         cfg.Locks.CfgName,
		CfgLockTTL:          cfg.CfgLockTTL(),
		SeasonDirFormat:     cfg.Library.SeasonDirFormat,
		WriteShowNFO:        cfg.Library.WriteShowNFO,
		DefaultDocumentPath: cfg.Policy.DefaultDocument,
	}
}

// Dependencies are the collaborators an Archiver calls out to. Nil entries
// are replaced with inert implementations.
type Dependencies struct {
	Namer    Namer
	Scraper  scraper.Runner
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Archiver moves queued downloads into the library one task per run.
type Archiver struct {
	store    *store.Store
	registry *relocate.Registry
	opts     Options
	namer    Namer
	scraper  scraper.Runner
	notifier notifications.Service
	logger   *slog.Logger
}

// New builds an Archiver.
func New(st *store.Store, registry *relocate.Registry, opts Options, deps Dependencies) (*Archiver, error) {
	if st == nil {
		return nil, errors.New("archive: store is required")
	}
	if registry == nil {
		return nil, errors.New("archive: registry is required")
	}
	opts.LockName = strings.TrimSpace(opts.LockName)
	opts.CfgLockName = strings.TrimSpace(opts.CfgLockName)
	if opts.LockName == "" || opts.CfgLockName == "" {
		return nil, errors.New("archive: lock names are required")
	}
	if opts.LockTTL < time.Second || opts.CfgLockTTL < time.Second {
		return nil, errors.New("archive: lock ttl must be at least one second")
	}

	a := &Archiver{
		store:    st,
		registry: registry,
		opts:     opts,
		namer:    deps.Namer,
		scraper:  deps.Scraper,
		notifier: deps.Notifier,
		logger:   logging.NewComponentLogger(deps.Logger, "archive"),
	}
	if a.scraper == nil {
		a.scraper = scraper.NewRunner(nil)
	}
	if a.notifier == nil {
		a.notifier = notifications.NewService(&config.Config{})
	}
	return a, nil
}

func (a *Archiver) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := a.notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
