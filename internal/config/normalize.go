package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLocks()
	c.normalizeLibrary()
	c.normalizeTMDB()
	c.normalizeScraper()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Policy.DefaultDocument, err = expandPath(strings.TrimSpace(c.Policy.DefaultDocument)); err != nil {
		return fmt.Errorf("policy.default_document: %w", err)
	}
	if c.Titles.Path, err = expandPath(strings.TrimSpace(c.Titles.Path)); err != nil {
		return fmt.Errorf("titles.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLocks() {
	c.Locks.ArchiveName = strings.TrimSpace(c.Locks.ArchiveName)
	if c.Locks.ArchiveName == "" {
		c.Locks.ArchiveName = defaultArchiveLockName
	}
	c.Locks.CfgName = strings.TrimSpace(c.Locks.CfgName)
	if c.Locks.CfgName == "" {
		c.Locks.CfgName = defaultCfgLockName
	}
}

func (c *Config) normalizeLibrary() {
	c.Library.SeasonDirFormat = strings.TrimSpace(c.Library.SeasonDirFormat)
	if c.Library.SeasonDirFormat == "" {
		c.Library.SeasonDirFormat = defaultSeasonDirFormat
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv(tmdbAPIKeyEnv); ok {
			c.TMDB.APIKey = value
		}
	}
	if c.TMDB.APIToken == "" {
		if value, ok := os.LookupEnv(tmdbAPITokenEnv); ok {
			c.TMDB.APIToken = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.APIToken = strings.TrimSpace(c.TMDB.APIToken)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeScraper() {
	c.Scraper.Command = strings.TrimSpace(c.Scraper.Command)
	if c.Scraper.Command != "" {
		if expanded, err := expandPath(c.Scraper.Command); err == nil && strings.ContainsRune(c.Scraper.Command, '/') {
			c.Scraper.Command = expanded
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.TelegramBotToken == "" {
		if value, ok := os.LookupEnv(telegramBotTokenEnv); ok {
			c.Notifications.TelegramBotToken = value
		}
	}
	if c.Notifications.TelegramChatID == "" {
		if value, ok := os.LookupEnv(telegramChatIDEnv); ok {
			c.Notifications.TelegramChatID = value
		}
	}
	c.Notifications.TelegramBotToken = strings.TrimSpace(c.Notifications.TelegramBotToken)
	c.Notifications.TelegramChatID = strings.TrimSpace(c.Notifications.TelegramChatID)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "pretty", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
