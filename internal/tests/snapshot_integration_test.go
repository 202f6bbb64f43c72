package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gamebox/sqld/internal/cli/command"
	"github.com/gamebox/sqld/internal/server/httpserver"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
	"github.com/gamebox/sqld/internal/telemetry/metric"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// startDaemon serves a strict index stored under dir. stop releases the
// server and the bolt file lock; it also runs at cleanup.
func startDaemon(t *testing.T, dir string) (server *httptest.Server, stop func()) {
	t.Helper()

	cfg := kv.DefaultConfig(filepath.Join(dir, "index.db"))
	cfg.Bolt.NoSync = true
	env, err := kv.Open(cfg, discard)
	if err != nil {
		t.Fatalf("kv.Open() error = %v", err)
	}

	store, err := snapshotindex.Open(env, snapshotindex.WithLogger(discard), snapshotindex.WithStrictRanges(true))
	if err != nil {
		env.Close()
		t.Fatalf("snapshotindex.Open() error = %v", err)
	}

	server = httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Index:   store,
		Engine:  env.Engine(),
		Logger:  discard,
		Metrics: metric.NewRegistry(),
	}))

	var once sync.Once
	stop = func() {
		once.Do(func() {
			server.Close()
			env.Close()
		})
	}
	t.Cleanup(stop)
	return server, stop
}

func cli(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := command.App()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"sqld-snapshot", "--server", server.URL, "-o", "json"}, args...))
	return out.String(), err
}

func TestSnapshotIndex_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server, _ := startDaemon(t, t.TempDir())

	ranges := [][2]string{{"1", "100"}, {"101", "250"}, {"400", "500"}}
	ids := make([]string, len(ranges))
	for i, r := range ranges {
		out, err := cli(t, server, "register", "--start", r[0], "--end", r[1], "name:orders")
		if err != nil {
			t.Fatalf("register %v error = %v\n%s", r, err, out)
		}
		var snap command.Snapshot
		if err := json.Unmarshal([]byte(out), &snap); err != nil {
			t.Fatalf("register output: %v\n%s", err, out)
		}
		ids[i] = snap.SnapshotID
	}

	tests := []struct {
		frame  string
		wantID int
	}{
		{"1", 0},
		{"100", 0},
		{"101", 1},
		{"250", 1},
		{"450", 2},
		{"300", -1},
		{"501", -1},
	}
	for _, tt := range tests {
		out, err := cli(t, server, "locate", "name:orders", tt.frame)
		if tt.wantID < 0 {
			if err == nil || !strings.Contains(err.Error(), "SQLD-SNAP-4040") {
				t.Errorf("locate %s error = %v, want SQLD-SNAP-4040", tt.frame, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("locate %s error = %v", tt.frame, err)
		}
		var snap command.Snapshot
		if err := json.Unmarshal([]byte(out), &snap); err != nil {
			t.Fatalf("locate output: %v\n%s", err, out)
		}
		if snap.SnapshotID != ids[tt.wantID] {
			t.Errorf("locate %s = %s, want %s", tt.frame, snap.SnapshotID, ids[tt.wantID])
		}
	}

	// Another database never sees these ranges.
	if _, err := cli(t, server, "locate", "name:users", "50"); err == nil {
		t.Error("locate in another database should miss")
	}

	// Strict mode rejects an overlapping registration.
	_, err := cli(t, server, "register", "--start", "240", "--end", "260", "name:orders")
	if err == nil || !strings.Contains(err.Error(), "SQLD-SNAP-4090") {
		t.Errorf("overlap error = %v, want SQLD-SNAP-4090", err)
	}

	out, err := cli(t, server, "list", "name:orders")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	var list command.SnapshotList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("list output: %v\n%s", err, out)
	}
	if list.Total != 3 || len(list.Items) != 3 || list.Items[2].StartFrameNo != 400 {
		t.Errorf("list = %+v", list)
	}
}

func TestSnapshotIndex_SurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := t.TempDir()

	first, stopFirst := startDaemon(t, dir)
	out, err := cli(t, first, "register", "--start", "1", "--end", "10", "name:orders")
	if err != nil {
		t.Fatalf("register error = %v\n%s", err, out)
	}
	var registered command.Snapshot
	if err := json.Unmarshal([]byte(out), &registered); err != nil {
		t.Fatal(err)
	}
	stopFirst()

	second, _ := startDaemon(t, dir)
	out, err = cli(t, second, "locate", "name:orders", "5")
	if err != nil {
		t.Fatalf("locate after restart error = %v", err)
	}
	var located command.Snapshot
	if err := json.Unmarshal([]byte(out), &located); err != nil {
		t.Fatal(err)
	}
	if located.SnapshotID != registered.SnapshotID {
		t.Errorf("snapshot id = %s, want %s", located.SnapshotID, registered.SnapshotID)
	}
}
