package config

const (
	defaultConfigPath        = "~/.config/shelver/config.toml"
	projectConfigFile        = "shelver.toml"
	configPathEnv            = "SHELVER_CONFIG"
	defaultDataDir           = "~/.local/share/shelver"
	defaultLogDir            = "~/.local/share/shelver/logs"
	defaultArchiveLockName   = "execute_archive"
	defaultCfgLockName       = "create_cfg"
	defaultLockTTLSeconds    = 300
	defaultSeasonDirFormat   = "season %d"
	defaultPolicyDocument    = "~/.config/shelver/cfg.json"
	defaultTitlesPath        = "~/.config/shelver/titles.toml"
	defaultTMDBLanguage      = "zh-CN"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultScraperTimeout    = 600
	defaultRequestTimeout    = 10
	defaultScheduleCron      = "*/5 * * * *"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	telegramBotTokenEnv      = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv        = "TELEGRAM_CHAT_ID"
	tmdbAPIKeyEnv            = "TMDB_API_KEY"
	tmdbAPITokenEnv          = "TMDB_API_TOKEN"
	seasonDirFormatDirective = "%d"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Locks: Locks{
			ArchiveName:       defaultArchiveLockName,
			ArchiveTTLSeconds: defaultLockTTLSeconds,
			CfgName:           defaultCfgLockName,
			CfgTTLSeconds:     defaultLockTTLSeconds,
		},
		Library: Library{
			SeasonDirFormat: defaultSeasonDirFormat,
			WriteShowNFO:    true,
		},
		Policy: Policy{
			DefaultDocument: defaultPolicyDocument,
		},
		Titles: Titles{
			Path: defaultTitlesPath,
		},
		TMDB: TMDB{
			Language: defaultTMDBLanguage,
			BaseURL:  defaultTMDBBaseURL,
		},
		Scraper: Scraper{
			TimeoutSeconds: defaultScraperTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
		},
		Schedule: Schedule{
			Cron: defaultScheduleCron,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
