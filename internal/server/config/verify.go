package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/telemetry/logger"
)

// Verify validates the configuration. It does not touch storage.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	// TLS needs both halves.
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case kv.EngineBolt, kv.EngineBadger:
	default:
		return fmt.Errorf("storage.engine %q: want %s or %s", cfg.Engine, kv.EngineBolt, kv.EngineBadger)
	}

	if cfg.Path == "" && !(cfg.Engine == kv.EngineBadger && cfg.Badger.InMemory) {
		return errors.New("storage.path is required")
	}
	if cfg.Bolt.Timeout < 0 {
		return errors.New("storage.bolt.timeout must not be negative")
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		return fmt.Errorf("storage.badger.gc_threshold %v must be in (0, 1)", cfg.Badger.GCThreshold)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Format {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q: want json or text", cfg.Format)
	}
}
