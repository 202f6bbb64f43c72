package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gamebox/sqld/internal/server/httpserver/handler"
	"github.com/gamebox/sqld/internal/telemetry/metric"
)

// RouteMetrics is the Prometheus exposition route.
const RouteMetrics = "GET /metrics"

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Index serves the snapshot endpoints.
	Index handler.SnapshotIndex

	// Engine is the storage engine name reported by /health.
	Engine string

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics records HTTP metrics and serves /metrics. Optional.
	Metrics *metric.Registry

	// RateLimit is the global API budget in requests per second; 0
	// disables limiting. Health, version and metrics are never limited.
	RateLimit int
}

// NewRouter creates the HTTP handler with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Index, cfg.Engine, log)
	limiter := NewLimiter(cfg.RateLimit)
	mux := http.NewServeMux()

	// Order: RequestID -> Recover -> AccessLog -> RateLimit -> Handler
	base := func(route string) []Middleware {
		return []Middleware{RequestID(), Recover(log), AccessLog(log, cfg.Metrics, route)}
	}

	for _, route := range []string{handler.RouteHealth, handler.RouteVersion} {
		mux.Handle(route, Chain(h, base(route)...))
	}

	for _, route := range []string{handler.RouteLocate, handler.RouteRegister, handler.RouteList} {
		mws := append(base(route), RateLimit(limiter, cfg.Metrics))
		mux.Handle(route, Chain(h, mws...))
	}

	if cfg.Metrics != nil {
		mux.Handle(RouteMetrics, Chain(cfg.Metrics.Handler(), base(RouteMetrics)...))
	}

	return mux
}
