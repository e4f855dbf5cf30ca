package config

import "github.com/spf13/viper"

// Default returns the zero-value configuration populated with the
// defaults gofind ships with.
func Default() Config {
	return Config{
		ShutdownTimeout: "10s",

		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Store: StoreConfig{
			Path:         "gofind.db",
			BatchSize:    500,
			MaxOpenConns: 1,
		},

		Scanner: ScannerConfig{
			Workers:   4,
			BatchSize: 1000,
		},

		Watcher: WatcherConfig{
			DebounceMillis: 100,
		},

		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8765",
		},

		Roots: nil,
	}
}

func setDefaults() {
	defaults := Default()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("store.batch_size", defaults.Store.BatchSize)
	viper.SetDefault("store.max_open_conns", defaults.Store.MaxOpenConns)

	viper.SetDefault("scanner.workers", defaults.Scanner.Workers)
	viper.SetDefault("scanner.batch_size", defaults.Scanner.BatchSize)

	viper.SetDefault("watcher.debounce_millis", defaults.Watcher.DebounceMillis)

	viper.SetDefault("http.addr", defaults.HTTP.Addr)
}
