package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
)

// RangeCounts is the number of registered ranges per benchmark index.
var RangeCounts = []int{1000, 10000, 100000}

// rangeWidth is the number of frames each prefilled snapshot covers.
const rangeWidth = 1000

// prefillBatch is the number of ranges registered per write transaction.
const prefillBatch = 1000

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// openStore opens an index on engine. Bolt runs without fsync so that disk
// latency does not dominate.
func openStore(b *testing.B, engine string, opts ...snapshotindex.Option) *snapshotindex.Store {
	b.Helper()

	var (
		env kv.Env
		err error
	)
	switch engine {
	case kv.EngineBolt:
		cfg := kv.DefaultBoltConfig()
		cfg.NoSync = true
		env, err = kv.OpenBolt(filepath.Join(b.TempDir(), "index.db"), cfg, discard)
	case kv.EngineBadger:
		cfg := kv.DefaultBadgerConfig()
		cfg.InMemory = true
		env, err = kv.OpenBadger("", cfg, discard)
	default:
		b.Fatalf("unknown engine %s", engine)
	}
	if err != nil {
		b.Fatalf("open %s: %v", engine, err)
	}
	b.Cleanup(func() { env.Close() })

	store, err := snapshotindex.Open(env, append([]snapshotindex.Option{snapshotindex.WithLogger(discard)}, opts...)...)
	if err != nil {
		b.Fatalf("open index: %v", err)
	}
	return store
}

// prefill registers count adjacent ranges of rangeWidth frames for db,
// starting at frame 1.
func prefill(b *testing.B, store *snapshotindex.Store, db domain.DatabaseID, count int) {
	b.Helper()
	ctx := context.Background()

	for done := 0; done < count; {
		n := min(prefillBatch, count-done)
		err := store.Update(ctx, func(txn kv.WriteTxn) error {
			for i := done; i < done+n; i++ {
				start := uint64(i)*rangeWidth + 1
				if err := store.Register(ctx, txn, db, start, start+rangeWidth-1, uuid.New()); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatalf("prefill: %v", err)
		}
		done += n
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
}

// runEngines runs benchFn for every engine and range count.
func runEngines(b *testing.B, counts []int, benchFn func(b *testing.B, engine string, count int)) {
	for _, engine := range []string{kv.EngineBolt, kv.EngineBadger} {
		b.Run(engine, func(b *testing.B) {
			for _, count := range counts {
				b.Run(fmt.Sprintf("ranges_%d", count), func(b *testing.B) {
					benchFn(b, engine, count)
				})
			}
		})
	}
}
