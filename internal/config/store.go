package config

// StoreConfig configures the SQLite-backed index store.
type StoreConfig struct {
	Path         string `mapstructure:"path"           yaml:"path"`
	BatchSize    int    `mapstructure:"batch_size"     yaml:"batch_size"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
}

// ScannerConfig configures the parallel bulk scanner.
type ScannerConfig struct {
	Workers   int `mapstructure:"workers"    yaml:"workers"`
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// WatcherConfig configures the incremental filesystem watcher.
type WatcherConfig struct {
	DebounceMillis int `mapstructure:"debounce_millis" yaml:"debounce_millis"`
}

// HTTPConfig configures the query-serving HTTP listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}
