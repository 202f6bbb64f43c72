package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Badger key namespaces. Table keys start with the table name length (1-255),
// the catalog starts with 0x00, so the two never collide.
const catalogPrefix byte = 0x00

// BadgerEnv implements Env using Badger v3.
//
// Badger allows concurrent optimistic writers; BadgerEnv serializes write
// transactions so the environment behaves as single-writer like bolt.
type BadgerEnv struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	writeMu sync.Mutex

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	stopCh chan struct{}
	doneCh chan struct{}
}

// OpenBadger opens (creating if needed) the Badger environment in dir.
func OpenBadger(dir string, cfg BadgerConfig, logger *slog.Logger) (*BadgerEnv, error) {
	if dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	env := &BadgerEnv{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.InMemory {
		close(env.doneCh)
	} else {
		go env.gcLoop()
	}

	logger.Info("badger environment opened",
		"dir", dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return env, nil
}

// Engine implements Env.
func (e *BadgerEnv) Engine() string { return EngineBadger }

// OpenTable implements Env. The table is recorded in the catalog.
func (e *BadgerEnv) OpenTable(name string) (Table, error) {
	if err := validTableName(name); err != nil {
		return nil, err
	}

	err := Update(e, func(txn WriteTxn) error {
		bt := txn.(*badgerTxn)
		catalogKey := append([]byte{catalogPrefix}, name...)
		if _, err := bt.txn.Get(catalogKey); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return bt.txn.Set(catalogKey, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("badger: create table %q: %w", name, err)
	}

	prefix := make([]byte, 0, 1+len(name))
	prefix = append(prefix, byte(len(name)))
	prefix = append(prefix, name...)

	return &badgerTable{env: e, name: name, prefix: prefix}, nil
}

// BeginRead implements Env.
func (e *BadgerEnv) BeginRead() (Txn, error) {
	if e.db.IsClosed() {
		return nil, ErrClosed
	}
	return &badgerTxn{env: e, txn: e.db.NewTransaction(false)}, nil
}

// BeginWrite implements Env. It blocks while another write transaction is open.
func (e *BadgerEnv) BeginWrite() (WriteTxn, error) {
	e.writeMu.Lock()
	if e.db.IsClosed() {
		e.writeMu.Unlock()
		return nil, ErrClosed
	}
	return &badgerTxn{env: e, txn: e.db.NewTransaction(true), writable: true}, nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (e *BadgerEnv) GC() error {
	if e.cfg.InMemory {
		return nil
	}

	start := time.Now()
	rewrites := 0
	for {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("badger: gc: %w", err)
		}
		rewrites++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(1)

	e.logger.Debug("badger gc completed",
		"rewrites", rewrites,
		"elapsed", time.Since(start))
	return nil
}

// Close implements Env.
func (e *BadgerEnv) Close() error {
	if e.db.IsClosed() {
		return nil
	}
	e.logger.Info("shutting down badger environment")

	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	return nil
}

// RegisterMetrics exposes Badger size and GC statistics.
func (e *BadgerEnv) RegisterMetrics(reg prometheus.Registerer) error {
	lsmSize := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sqld",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		lsm, _ := e.db.Size()
		return float64(lsm)
	})

	vlogSize := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sqld",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, vlog := e.db.Size()
		return float64(vlog)
	})

	lastGC := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sqld",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	}, func() float64 {
		return float64(e.lastGCTime.Load()) / 1000.0
	})

	gcRuns := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "sqld",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Total number of completed Badger GC runs",
	}, func() float64 {
		return float64(e.gcRuns.Load())
	})

	for _, c := range []prometheus.Collector{lsmSize, vlogSize, lastGC, gcRuns} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// gcLoop runs periodic value log garbage collection.
func (e *BadgerEnv) gcLoop() {
	defer close(e.doneCh)

	interval := e.cfg.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.GC(); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
		case <-e.stopCh:
			return
		}
	}
}

// badgerTxn wraps a Badger transaction.
type badgerTxn struct {
	env      *BadgerEnv
	txn      *badger.Txn
	writable bool
	done     bool
}

func (t *badgerTxn) Commit() error {
	if t.done {
		return ErrTxnClosed
	}
	t.done = true
	defer t.release()

	if !t.writable {
		t.txn.Discard()
		return ErrReadOnlyTxn
	}
	return t.txn.Commit()
}

func (t *badgerTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.txn.Discard()
	t.release()
	return nil
}

func (t *badgerTxn) release() {
	if t.writable {
		t.env.writeMu.Unlock()
	}
}

// badgerTable is a Table stored under a key prefix.
type badgerTable struct {
	env    *BadgerEnv
	name   string
	prefix []byte
}

func (t *badgerTable) Name() string { return t.name }

func (t *badgerTable) txn(txn Txn) (*badgerTxn, error) {
	bt, ok := txn.(*badgerTxn)
	if !ok || bt.env != t.env {
		return nil, ErrForeignTxn
	}
	if bt.done {
		return nil, ErrTxnClosed
	}
	return bt, nil
}

func (t *badgerTable) key(k []byte) []byte {
	out := make([]byte, 0, len(t.prefix)+len(k))
	out = append(out, t.prefix...)
	return append(out, k...)
}

func (t *badgerTable) Put(txn WriteTxn, key, value []byte) error {
	bt, err := t.txn(txn)
	if err != nil {
		return err
	}
	if !bt.writable {
		return ErrReadOnlyTxn
	}
	// Badger keeps references until commit; key() already copies.
	return bt.txn.Set(t.key(key), cloneBytes(value))
}

func (t *badgerTable) Get(txn Txn, key []byte) ([]byte, error) {
	bt, err := t.txn(txn)
	if err != nil {
		return nil, err
	}

	item, err := bt.txn.Get(t.key(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTable) SeekLE(txn Txn, probe []byte) ([]byte, []byte, error) {
	bt, err := t.txn(txn)
	if err != nil {
		return nil, nil, err
	}

	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	opts.Prefix = t.prefix
	it := bt.txn.NewIterator(opts)
	defer it.Close()

	// In reverse mode Seek lands on the greatest key <= its argument.
	it.Seek(t.key(probe))
	if !it.ValidForPrefix(t.prefix) {
		return nil, nil, ErrKeyNotFound
	}

	item := it.Item()
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	return item.KeyCopy(nil)[len(t.prefix):], value, nil
}

func (t *badgerTable) Ascend(txn Txn, from []byte, fn func(key, value []byte) bool) error {
	bt, err := t.txn(txn)
	if err != nil {
		return err
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = t.prefix
	it := bt.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(t.key(from)); it.ValidForPrefix(t.prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !fn(item.KeyCopy(nil)[len(t.prefix):], value) {
			break
		}
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
