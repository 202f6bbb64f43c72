package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Common errors
var (
	ErrKeyNotFound      = errors.New("kv: key not found")
	ErrTableNotFound    = errors.New("kv: table not found")
	ErrTxnClosed        = errors.New("kv: transaction closed")
	ErrForeignTxn       = errors.New("kv: transaction belongs to another environment")
	ErrReadOnlyTxn      = errors.New("kv: write in read-only transaction")
	ErrInvalidTableName = errors.New("kv: invalid table name")
	ErrUnknownEngine    = errors.New("kv: unknown engine")
	ErrClosed           = errors.New("kv: environment closed")
)

// Env is an embedded transactional key-value environment hosting any number
// of named tables.
//
// Implementations must provide:
//   - Single writer, many readers: BeginWrite blocks while another write
//     transaction is open.
//   - Snapshot isolation: a read transaction sees the data committed before
//     it began and nothing after.
//   - Atomic commits across all tables of the environment.
type Env interface {
	// OpenTable returns the named table, creating it if absent. It runs in
	// its own write transaction, committed before returning.
	OpenTable(name string) (Table, error)

	// BeginRead starts a read-only transaction.
	BeginRead() (Txn, error)

	// BeginWrite starts a read-write transaction owned by the caller.
	BeginWrite() (WriteTxn, error)

	// Engine returns the backend name ("bolt", "badger").
	Engine() string

	// Close releases the environment. Open transactions must be finished first.
	Close() error
}

// Txn is a transaction handle. Rollback releases it and is safe to call
// more than once, including after Commit.
type Txn interface {
	Rollback() error
}

// WriteTxn is a read-write transaction.
type WriteTxn interface {
	Txn
	Commit() error
}

// Table is a handle to one named, byte-ordered table. It is safe for
// concurrent use; every operation runs inside the supplied transaction.
//
// Returned keys and values are copies owned by the caller.
type Table interface {
	Name() string

	// Put stores value under key, replacing any previous value.
	Put(txn WriteTxn, key, value []byte) error

	// Get returns the value stored under key or ErrKeyNotFound.
	Get(txn Txn, key []byte) ([]byte, error)

	// SeekLE returns the entry with the greatest key less than or equal to
	// probe, or ErrKeyNotFound when every key is greater.
	SeekLE(txn Txn, probe []byte) (key, value []byte, err error)

	// Ascend calls fn for every entry with key >= from in ascending order
	// until fn returns false.
	Ascend(txn Txn, from []byte, fn func(key, value []byte) bool) error
}

// View runs fn inside a read transaction that is always released.
func View(env Env, fn func(txn Txn) error) error {
	txn, err := env.BeginRead()
	if err != nil {
		return err
	}
	defer txn.Rollback()

	return fn(txn)
}

// Update runs fn inside a write transaction and commits it when fn returns
// nil. The transaction is rolled back on every other path.
func Update(env Env, fn func(txn WriteTxn) error) error {
	txn, err := env.BeginWrite()
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// Config configures an embedded KV environment.
type Config struct {
	// Engine selects the backend: "bolt" (default) or "badger".
	Engine string

	// Path is the environment location: a file for bolt, a directory for
	// badger.
	Path string

	Bolt   BoltConfig
	Badger BadgerConfig
}

// BoltConfig contains bolt-specific tuning parameters.
type BoltConfig struct {
	// Timeout bounds how long Open waits for the file lock.
	// Default: 1s
	Timeout time.Duration

	// NoSync skips fsync after commit. Only for tests and bulk loads.
	NoSync bool

	// InitialMmapSize is the initial mmap size in bytes. A large value
	// avoids remapping, which blocks writers while readers are open.
	// Default: 0 (bolt default)
	InitialMmapSize int
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites enables fsync after each commit.
	// Default: true
	SyncWrites bool

	// InMemory keeps all data in memory; Path is ignored.
	InMemory bool
}

// DefaultConfig returns the default KV configuration.
func DefaultConfig(path string) Config {
	return Config{
		Engine: EngineBolt,
		Path:   path,
		Bolt:   DefaultBoltConfig(),
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBoltConfig returns the default bolt configuration.
func DefaultBoltConfig() BoltConfig {
	return BoltConfig{
		Timeout: time.Second,
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   64 << 20, // 64MB
		SyncWrites:  true,
	}
}

// Engine names.
const (
	EngineBolt   = "bolt"
	EngineBadger = "badger"
)

// Open opens the environment selected by cfg.Engine.
func Open(cfg Config, logger *slog.Logger) (Env, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Engine {
	case "", EngineBolt:
		return OpenBolt(cfg.Path, cfg.Bolt, logger)
	case EngineBadger:
		return OpenBadger(cfg.Path, cfg.Badger, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

func validTableName(name string) error {
	if name == "" || len(name) > 255 {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
