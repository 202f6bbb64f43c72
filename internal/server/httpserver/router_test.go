package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gamebox/sqld/internal/server/httpserver/handler"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
	"github.com/gamebox/sqld/internal/telemetry/metric"
)

func newTestRouter(t *testing.T, rateLimit int) (http.Handler, *metric.Registry) {
	t.Helper()

	cfg := kv.DefaultBadgerConfig()
	cfg.InMemory = true
	env, err := kv.OpenBadger("", cfg, testLogger())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { env.Close() })

	store, err := snapshotindex.Open(env, snapshotindex.WithLogger(testLogger()), snapshotindex.WithStrictRanges(true))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	reg := metric.NewRegistry()
	return NewRouter(&RouterConfig{
		Index:     store,
		Engine:    kv.EngineBadger,
		Logger:    testLogger(),
		Metrics:   reg,
		RateLimit: rateLimit,
	}), reg
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec
}

func TestRouter_RegisterThenLocate(t *testing.T) {
	h, reg := newTestRouter(t, 0)

	rec := serve(h, http.MethodPost, "/v1/databases/name:orders/snapshots",
		`{"start_frame_no":1,"end_frame_no":100}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("response should carry a request id")
	}

	rec = serve(h, http.MethodGet, "/v1/databases/name:orders/snapshots/locate?frame_no=50", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("locate status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = serve(h, http.MethodGet, "/v1/databases/name:orders/snapshots/locate?frame_no=500", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("uncovered locate status = %d, want 404", rec.Code)
	}

	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues(handler.RouteLocate, "GET", "200")); got != 1 {
		t.Errorf("locate 200 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues(handler.RouteLocate, "GET", "404")); got != 1 {
		t.Errorf("locate 404 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues(handler.RouteRegister, "POST", "201")); got != 1 {
		t.Errorf("register 201 count = %v, want 1", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t, 0)

	serve(h, http.MethodGet, "/health", "")
	rec := serve(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	for _, name := range []string{"sqld_http_requests_total", "sqld_build_info", "go_goroutines"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestRouter_RateLimitSkipsHealth(t *testing.T) {
	h, reg := newTestRouter(t, 1)

	list := "/v1/databases/name:orders/snapshots"
	if rec := serve(h, http.MethodGet, list, ""); rec.Code != http.StatusOK {
		t.Fatalf("first list status = %d, want 200", rec.Code)
	}
	if rec := serve(h, http.MethodGet, list, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second list status = %d, want 429", rec.Code)
	}

	for i := 0; i < 5; i++ {
		if rec := serve(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("health status = %d, want 200", rec.Code)
		}
	}

	if got := testutil.ToFloat64(reg.RateLimited); got != 1 {
		t.Errorf("rate limited count = %v, want 1", got)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t, 0)

	if rec := serve(h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/health", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
