package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gamebox/sqld/internal/infra/buildinfo"
	"github.com/gamebox/sqld/internal/infra/confloader"
	"github.com/gamebox/sqld/internal/infra/shutdown"
	"github.com/gamebox/sqld/internal/infra/tlsroots"
	"github.com/gamebox/sqld/internal/server/config"
	"github.com/gamebox/sqld/internal/server/httpserver"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
	"github.com/gamebox/sqld/internal/telemetry/logger"
	"github.com/gamebox/sqld/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sqld-snapshotd %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting sqld-snapshotd",
		append([]any{"version", info.Version, "commit", info.Commit, "config", *configFile},
			config.Summary(cfg)...)...)

	return serve(cfg, *configFile, log, shutdown.NewHandler(cfg.Server.ShutdownTimeout, slogLogger))
}

// serve opens the index and runs the HTTP server until shutdownHandler
// fires. A startup failure runs every hook registered so far before
// returning.
func serve(cfg *config.ServerConfig, configFile string, log logger.Logger, shutdownHandler *shutdown.Handler) error {
	slogLogger := log.Slog()
	metrics := metric.NewRegistry()

	abort := func(err error) error {
		if serr := shutdownHandler.Shutdown(); serr != nil {
			log.Error("cleanup after startup failure", "error", serr)
		}
		return err
	}

	env, err := kv.Open(cfg.Storage.KVConfig(), slogLogger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return env.Close()
	})

	if m, ok := env.(interface {
		RegisterMetrics(prometheus.Registerer) error
	}); ok {
		if err := m.RegisterMetrics(metrics.Prometheus()); err != nil {
			return abort(fmt.Errorf("register storage metrics: %w", err))
		}
	}

	indexMetrics, err := snapshotindex.NewMetrics(metrics.Prometheus())
	if err != nil {
		return abort(fmt.Errorf("register index metrics: %w", err))
	}

	index, err := snapshotindex.Open(env,
		snapshotindex.WithLogger(slogLogger),
		snapshotindex.WithMetrics(indexMetrics),
		snapshotindex.WithStrictRanges(cfg.Index.StrictRanges))
	if err != nil {
		return abort(fmt.Errorf("open snapshot index: %w", err))
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, slogLogger)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	httpCfg := httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}
	if cfg.Server.HTTP.TLSCertFile != "" {
		reloader, err := tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(slogLogger))
		if err != nil {
			return abort(fmt.Errorf("load tls certificate: %w", err))
		}
		reloader.StartAsync()
		shutdownHandler.OnShutdown("tls-reloader", func(context.Context) error {
			return reloader.Stop()
		})
		httpCfg.GetCertificate = reloader.GetCertificate
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Index:     index,
		Engine:    env.Engine(),
		Logger:    slogLogger,
		Metrics:   metrics,
		RateLimit: cfg.Server.HTTP.RateLimit,
	})

	httpServer := httpserver.New(httpCfg, router, slogLogger)

	if err := httpServer.Listen(); err != nil {
		return abort(fmt.Errorf("listen: %w", err))
	}
	shutdownHandler.OnShutdown("http", httpServer.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr())
		if err := httpServer.Serve(); err != nil {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	opts := []confloader.Option{confloader.WithDefaults(config.DefaultMap())}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	cfg := &config.ServerConfig{}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}
