package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"shelver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Policy.DefaultDocument = filepath.Join(base, "cfg.json")
	cfgVal.Titles.Path = filepath.Join(base, "titles.toml")
	cfgVal.TMDB.APIKey = ""
	cfgVal.TMDB.APIToken = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDB points the TMDB client at baseURL with the provided key.
func WithTMDB(baseURL, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = baseURL
		b.cfg.TMDB.APIKey = key
	}
}

// WithLockTTL overrides both lock TTLs, in seconds.
func WithLockTTL(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Locks.ArchiveTTLSeconds = seconds
		b.cfg.Locks.CfgTTLSeconds = seconds
	}
}

// WithStubbedScraper writes a stub executable that records its arguments to
// <base>/scraper.log and exits with exitCode, then configures it as the scraper.
func WithStubbedScraper(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		logPath := filepath.Join(b.baseDir, "scraper.log")
		script := "#!/bin/sh\necho \"$@\" >> '" + logPath + "'\nexit " + strconv.Itoa(exitCode) + "\n"
		target := filepath.Join(binDir, "scraper")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub scraper: %v", err)
		}
		b.cfg.Scraper.Command = target
		b.cfg.Scraper.Args = []string{"tvshow", "-u"}
		b.cfg.Scraper.TimeoutSeconds = 10
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// ScraperLog returns the file the stubbed scraper appends its arguments to.
func ScraperLog(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "scraper.log")
}
