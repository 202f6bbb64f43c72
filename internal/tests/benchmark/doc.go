// Package benchmark provides performance benchmarks for the snapshot index
// on every storage engine.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run one engine at a larger index size:
//
//	go test -bench='BenchmarkLocate/bolt/ranges_100000' -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
