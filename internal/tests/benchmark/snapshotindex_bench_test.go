package benchmark

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
)

// BenchmarkLocate measures covered-frame lookups at random positions.
func BenchmarkLocate(b *testing.B) {
	runEngines(b, RangeCounts, func(b *testing.B, engine string, count int) {
		store := openStore(b, engine)
		db := domain.DatabaseIDFromName("bench")
		prefill(b, store, db, count)

		ctx := context.Background()
		rng := rand.New(rand.NewSource(1))
		maxFrame := uint64(count) * rangeWidth

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			frame := uint64(rng.Int63n(int64(maxFrame))) + 1
			if _, found, err := store.Locate(ctx, db, frame); err != nil || !found {
				b.Fatalf("Locate(%d) = %v, %v", frame, found, err)
			}
		}
		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkLocate_Miss measures lookups past the last range and for a
// database sorting after the populated one.
func BenchmarkLocate_Miss(b *testing.B) {
	runEngines(b, []int{10000}, func(b *testing.B, engine string, count int) {
		store := openStore(b, engine)
		db := domain.DatabaseIDFromName("bench")
		prefill(b, store, db, count)

		ctx := context.Background()
		past := uint64(count)*rangeWidth + 1

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, found, err := store.Locate(ctx, db, past); err != nil || found {
				b.Fatalf("Locate(%d) = %v, %v", past, found, err)
			}
		}
	})
}

// BenchmarkRegister measures appending one range per committed transaction.
func BenchmarkRegister(b *testing.B) {
	for _, strict := range []bool{false, true} {
		name := "trusted"
		if strict {
			name = "strict"
		}
		b.Run(name, func(b *testing.B) {
			runEngines(b, []int{10000}, func(b *testing.B, engine string, count int) {
				store := openStore(b, engine, snapshotindex.WithStrictRanges(strict))
				db := domain.DatabaseIDFromName("bench")
				prefill(b, store, db, count)

				ctx := context.Background()
				next := uint64(count)*rangeWidth + 1

				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					start := next
					next += rangeWidth
					err := store.Update(ctx, func(txn kv.WriteTxn) error {
						return store.Register(ctx, txn, db, start, start+rangeWidth-1, uuid.New())
					})
					if err != nil {
						b.Fatalf("Register: %v", err)
					}
				}
			})
		})
	}
}

// BenchmarkList measures full scans of one database among several.
func BenchmarkList(b *testing.B) {
	runEngines(b, []int{1000, 10000}, func(b *testing.B, engine string, count int) {
		store := openStore(b, engine)
		target := domain.DatabaseIDFromName("bench")
		for _, name := range []string{"alpha", "omega"} {
			prefill(b, store, domain.DatabaseIDFromName(name), count/10)
		}
		prefill(b, store, target, count)

		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			entries, err := store.List(ctx, target)
			if err != nil || len(entries) != count {
				b.Fatalf("List() = %d entries, %v", len(entries), err)
			}
		}
	})
}
