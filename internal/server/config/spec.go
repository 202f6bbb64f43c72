package config

import "time"

// ServerConfig is the root configuration for sqld-snapshotd.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Index   IndexSection   `koanf:"index"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	TLSCertFile  string        `koanf:"tls_cert_file"`
	TLSKeyFile   string        `koanf:"tls_key_file"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// RateLimit is the global request budget per second; 0 disables it.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection selects and tunes the storage engine.
type StorageSection struct {
	Engine string        `koanf:"engine"`
	Path   string        `koanf:"path"`
	Bolt   BoltSection   `koanf:"bolt"`
	Badger BadgerSection `koanf:"badger"`
}

// BoltSection tunes the bolt engine.
type BoltSection struct {
	Timeout         time.Duration `koanf:"timeout"`
	NoSync          bool          `koanf:"no_sync"`
	InitialMmapSize int           `koanf:"initial_mmap_size"`
}

// BadgerSection tunes the badger engine.
type BadgerSection struct {
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSize   int64         `koanf:"cache_size"`
	SyncWrites  bool          `koanf:"sync_writes"`
	InMemory    bool          `koanf:"in_memory"`
}

// IndexSection configures the snapshot index.
type IndexSection struct {
	// StrictRanges rejects inverted and overlapping registrations.
	StrictRanges bool `koanf:"strict_ranges"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
