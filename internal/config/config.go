package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Locks contains the names and TTLs of the cooperative locks guarding the
// archive run and policy creation.
type Locks struct {
	ArchiveName       string `toml:"archive_name"`
	ArchiveTTLSeconds int    `toml:"archive_ttl_seconds"`
	CfgName           string `toml:"cfg_name"`
	CfgTTLSeconds     int    `toml:"cfg_ttl_seconds"`
}

// Library contains configuration for the destination library layout.
type Library struct {
	SeasonDirFormat   string `toml:"season_dir_format"`
	WriteShowNFO      bool   `toml:"write_show_nfo"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Policy contains configuration for policy documents created without an
// explicit payload.
type Policy struct {
	DefaultDocument string `toml:"default_document"`
}

// Titles points at the title table that feeds the relocation registry.
type Titles struct {
	Path string `toml:"path"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	APIToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Scraper describes the external scraper invoked after a successful relocation.
type Scraper struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy and Telegram delivery.
type Notifications struct {
	NtfyTopic        string `toml:"ntfy_topic"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Schedule contains the cron expression used by the schedule command.
type Schedule struct {
	Cron string `toml:"cron"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: database and log directories
//   - Locks: cooperative lock names and TTLs
//   - Library: destination layout and overwrite policy
//   - Policy: default policy document for cfg creation
//   - Titles: title table feeding the relocation registry
//   - TMDB: show name lookup
//   - Scraper: optional post-relocation command
//   - Notifications: ntfy and Telegram delivery
//   - Schedule: cron expression for the schedule command
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Locks         Locks         `toml:"locks"`
	Library       Library       `toml:"library"`
	Policy        Policy        `toml:"policy"`
	Titles        Titles        `toml:"titles"`
	TMDB          TMDB          `toml:"tmdb"`
	Scraper       Scraper       `toml:"scraper"`
	Notifications Notifications `toml:"notifications"`
	Schedule      Schedule      `toml:"schedule"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath picks the config file. An explicit path or SHELVER_CONFIG
// is used even when the file does not exist yet; otherwise the first existing
// candidate wins and the default location is reported as missing.
func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(configPathEnv))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := regularFileExists(expanded)
		if err != nil {
			return "", false, err
		}
		return expanded, exists, nil
	}

	candidates := make([]string, 0, 2)
	for _, candidate := range []string{defaultConfigPath, projectConfigFile} {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, expanded)
	}
	for _, candidate := range candidates {
		exists, err := regularFileExists(candidate)
		if err != nil {
			return "", false, err
		}
		if exists {
			return candidate, true, nil
		}
	}
	return candidates[0], false, nil
}

func regularFileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "shelver.db")
}

// LogFilePath returns the file the CLI appends structured logs to.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "shelver.log")
}

// ArchiveLockTTL returns the archive lock TTL as a duration.
func (c *Config) ArchiveLockTTL() time.Duration {
	return time.Duration(c.Locks.ArchiveTTLSeconds) * time.Second
}

// CfgLockTTL returns the policy creation lock TTL as a duration.
func (c *Config) CfgLockTTL() time.Duration {
	return time.Duration(c.Locks.CfgTTLSeconds) * time.Second
}

// ScraperTimeout returns the scraper timeout, zero meaning unbounded.
func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// ScraperEnabled reports whether a scraper command is configured.
func (c *Config) ScraperEnabled() bool {
	return strings.TrimSpace(c.Scraper.Command) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
