package config

import (
	"path/filepath"
	"time"

	"github.com/gamebox/sqld/internal/storage/kv"
)

// Default configuration values.
const (
	DefaultHTTPAddr         = "127.0.0.1:5090"
	DefaultHTTPReadTimeout  = 10 * time.Second
	DefaultHTTPWriteTimeout = 10 * time.Second
	DefaultRateLimit        = 1000
	DefaultShutdownTimeout  = 15 * time.Second

	DefaultStorageEngine = kv.EngineBolt
	DefaultStoragePath   = "/var/lib/sqld/snapshot-index"

	DefaultStrictRanges = true

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// BoltFileName is the bolt file created inside storage.path.
const BoltFileName = "index.db"

// Default returns the default server configuration.
func Default() *ServerConfig {
	bolt := kv.DefaultBoltConfig()
	badger := kv.DefaultBadgerConfig()

	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultHTTPReadTimeout,
				WriteTimeout: DefaultHTTPWriteTimeout,
				RateLimit:    DefaultRateLimit,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Engine: DefaultStorageEngine,
			Path:   DefaultStoragePath,
			Bolt: BoltSection{
				Timeout:         bolt.Timeout,
				NoSync:          bolt.NoSync,
				InitialMmapSize: bolt.InitialMmapSize,
			},
			Badger: BadgerSection{
				GCInterval:  badger.GCInterval,
				GCThreshold: badger.GCThreshold,
				CacheSize:   badger.CacheSize,
				SyncWrites:  badger.SyncWrites,
				InMemory:    badger.InMemory,
			},
		},
		Index: IndexSection{
			StrictRanges: DefaultStrictRanges,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns Default as dotted koanf keys, for use as the lowest
// priority source of confloader.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":               d.Server.HTTP.Addr,
		"server.http.tls_cert_file":      d.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":       d.Server.HTTP.TLSKeyFile,
		"server.http.read_timeout":       d.Server.HTTP.ReadTimeout.String(),
		"server.http.write_timeout":      d.Server.HTTP.WriteTimeout.String(),
		"server.http.rate_limit":         d.Server.HTTP.RateLimit,
		"server.shutdown_timeout":        d.Server.ShutdownTimeout.String(),
		"storage.engine":                 d.Storage.Engine,
		"storage.path":                   d.Storage.Path,
		"storage.bolt.timeout":           d.Storage.Bolt.Timeout.String(),
		"storage.bolt.no_sync":           d.Storage.Bolt.NoSync,
		"storage.bolt.initial_mmap_size": d.Storage.Bolt.InitialMmapSize,
		"storage.badger.gc_interval":     d.Storage.Badger.GCInterval.String(),
		"storage.badger.gc_threshold":    d.Storage.Badger.GCThreshold,
		"storage.badger.cache_size":      d.Storage.Badger.CacheSize,
		"storage.badger.sync_writes":     d.Storage.Badger.SyncWrites,
		"storage.badger.in_memory":       d.Storage.Badger.InMemory,
		"index.strict_ranges":            d.Index.StrictRanges,
		"log.level":                      d.Log.Level,
		"log.format":                     d.Log.Format,
	}
}

// KVConfig converts the storage section to a kv.Config. storage.path is a
// directory for both engines; bolt keeps its file inside it.
func (s StorageSection) KVConfig() kv.Config {
	cfg := kv.Config{
		Engine: s.Engine,
		Path:   s.Path,
		Bolt: kv.BoltConfig{
			Timeout:         s.Bolt.Timeout,
			NoSync:          s.Bolt.NoSync,
			InitialMmapSize: s.Bolt.InitialMmapSize,
		},
		Badger: kv.BadgerConfig{
			GCInterval:  s.Badger.GCInterval,
			GCThreshold: s.Badger.GCThreshold,
			CacheSize:   s.Badger.CacheSize,
			SyncWrites:  s.Badger.SyncWrites,
			InMemory:    s.Badger.InMemory,
		},
	}
	if cfg.Engine == "" || cfg.Engine == kv.EngineBolt {
		cfg.Path = filepath.Join(s.Path, BoltFileName)
	}
	return cfg
}
