package config

// Summary returns the settings worth logging at startup as slog key/value
// pairs.
func Summary(cfg *ServerConfig) []any {
	return []any{
		"http_addr", cfg.Server.HTTP.Addr,
		"tls", cfg.Server.HTTP.TLSCertFile != "",
		"rate_limit", cfg.Server.HTTP.RateLimit,
		"storage_engine", cfg.Storage.Engine,
		"storage_path", cfg.Storage.Path,
		"strict_ranges", cfg.Index.StrictRanges,
		"log_level", cfg.Log.Level,
	}
}
