package config

const (
	defaultQuarantineDir  = "~/.local/share/mediavault/quarantine"
	defaultDatabasePath   = "~/.local/share/mediavault/mediavault.db"
	defaultLogDir         = "~/.local/share/mediavault/logs"
	defaultAPIBind        = "127.0.0.1:7823"
	defaultScanWorkers    = 4
	defaultFFprobeTimeout = 60
	defaultFuzzyThreshold = 0.85
	defaultExpiryDays     = 30
	defaultPurgeInterval  = 3600
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultExtensions() []string {
	return []string{
		".mkv", ".mp4", ".avi", ".mov", ".m4v",
		".mpg", ".mpeg", ".ts", ".m2ts", ".wmv", ".webm", ".flv",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			QuarantineDir: defaultQuarantineDir,
			DatabasePath:  defaultDatabasePath,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		Scan: Scan{
			Workers:        defaultScanWorkers,
			Extensions:     defaultExtensions(),
			FFprobeTimeout: defaultFFprobeTimeout,
		},
		Dedupe: Dedupe{
			FuzzyThreshold:    defaultFuzzyThreshold,
			EnglishAudioGuard: true,
		},
		Staging: Staging{
			ExpiryDays:    defaultExpiryDays,
			PurgeInterval: defaultPurgeInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
