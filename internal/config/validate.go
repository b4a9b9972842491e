package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLocks(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLocks() error {
	if err := ensurePositiveMap(map[string]int{
		"locks.archive_ttl_seconds": c.Locks.ArchiveTTLSeconds,
		"locks.cfg_ttl_seconds":     c.Locks.CfgTTLSeconds,
	}); err != nil {
		return err
	}
	if c.Locks.ArchiveName == c.Locks.CfgName {
		return fmt.Errorf("locks.archive_name and locks.cfg_name must differ (both %q)", c.Locks.ArchiveName)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.Count(c.Library.SeasonDirFormat, seasonDirFormatDirective) != 1 {
		return fmt.Errorf("library.season_dir_format must contain exactly one %s directive, got %q", seasonDirFormatDirective, c.Library.SeasonDirFormat)
	}
	if strings.ContainsAny(c.Library.SeasonDirFormat, `/\`) {
		return fmt.Errorf("library.season_dir_format must not contain path separators, got %q", c.Library.SeasonDirFormat)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	hasToken := c.Notifications.TelegramBotToken != ""
	hasChat := c.Notifications.TelegramChatID != ""
	if hasToken != hasChat {
		return errors.New("notifications.telegram_bot_token and notifications.telegram_chat_id must be set together")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
