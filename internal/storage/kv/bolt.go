package kv

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

// BoltEnv implements Env on a single bolt file.
type BoltEnv struct {
	db     *bolt.DB
	path   string
	logger *slog.Logger
}

// OpenBolt opens (creating if needed) the bolt environment at path.
func OpenBolt(path string, cfg BoltConfig, logger *slog.Logger) (*BoltEnv, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("bolt: create dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:         cfg.Timeout,
		InitialMmapSize: cfg.InitialMmapSize,
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	db.NoSync = cfg.NoSync

	logger.Info("bolt environment opened",
		"path", path,
		"no_sync", cfg.NoSync)

	return &BoltEnv{db: db, path: path, logger: logger}, nil
}

// Engine implements Env.
func (e *BoltEnv) Engine() string { return EngineBolt }

// Path returns the environment file path.
func (e *BoltEnv) Path() string { return e.path }

// OpenTable implements Env. Each table is a top-level bucket.
func (e *BoltEnv) OpenTable(name string) (Table, error) {
	if err := validTableName(name); err != nil {
		return nil, err
	}

	err := e.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: create bucket %q: %w", name, err)
	}

	return &boltTable{env: e, name: []byte(name)}, nil
}

// BeginRead implements Env.
func (e *BoltEnv) BeginRead() (Txn, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return &boltTxn{env: e, tx: tx}, nil
}

// BeginWrite implements Env.
func (e *BoltEnv) BeginWrite() (WriteTxn, error) {
	tx, err := e.db.Begin(true)
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return &boltTxn{env: e, tx: tx}, nil
}

// Close implements Env.
func (e *BoltEnv) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("bolt: close: %w", err)
	}
	e.logger.Info("bolt environment closed", "path", e.path)
	return nil
}

// RegisterMetrics exposes bolt transaction statistics.
func (e *BoltEnv) RegisterMetrics(reg prometheus.Registerer) error {
	openTxns := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sqld",
		Subsystem: "bolt",
		Name:      "open_read_txns",
		Help:      "Number of currently open bolt read transactions",
	}, func() float64 {
		return float64(e.db.Stats().OpenTxN)
	})

	txTotal := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "sqld",
		Subsystem: "bolt",
		Name:      "read_txns_total",
		Help:      "Total number of bolt read transactions started",
	}, func() float64 {
		return float64(e.db.Stats().TxN)
	})

	for _, c := range []prometheus.Collector{openTxns, txTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func mapBoltErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// boltTxn wraps a bolt transaction.
type boltTxn struct {
	env  *BoltEnv
	tx   *bolt.Tx
	done bool
}

func (t *boltTxn) Commit() error {
	if t.done {
		return ErrTxnClosed
	}
	t.done = true
	return t.tx.Commit()
}

func (t *boltTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return err
	}
	return nil
}

// boltTable is a Table backed by a top-level bucket.
type boltTable struct {
	env  *BoltEnv
	name []byte
}

func (t *boltTable) Name() string { return string(t.name) }

func (t *boltTable) bucket(txn Txn) (*bolt.Bucket, *boltTxn, error) {
	bt, ok := txn.(*boltTxn)
	if !ok || bt.env != t.env {
		return nil, nil, ErrForeignTxn
	}
	if bt.done {
		return nil, nil, ErrTxnClosed
	}

	b := bt.tx.Bucket(t.name)
	if b == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTableNotFound, t.name)
	}
	return b, bt, nil
}

func (t *boltTable) Put(txn WriteTxn, key, value []byte) error {
	b, bt, err := t.bucket(txn)
	if err != nil {
		return err
	}
	if !bt.tx.Writable() {
		return ErrReadOnlyTxn
	}
	// bolt keeps references until commit.
	return b.Put(cloneBytes(key), cloneBytes(value))
}

func (t *boltTable) Get(txn Txn, key []byte) ([]byte, error) {
	b, _, err := t.bucket(txn)
	if err != nil {
		return nil, err
	}

	v := b.Get(key)
	if v == nil {
		return nil, ErrKeyNotFound
	}
	return cloneBytes(v), nil
}

func (t *boltTable) SeekLE(txn Txn, probe []byte) ([]byte, []byte, error) {
	b, _, err := t.bucket(txn)
	if err != nil {
		return nil, nil, err
	}

	c := b.Cursor()
	k, v := c.Seek(probe)
	switch {
	case k == nil:
		// Every key is smaller than probe.
		k, v = c.Last()
	case !bytes.Equal(k, probe):
		k, v = c.Prev()
	}

	if k == nil {
		return nil, nil, ErrKeyNotFound
	}
	return cloneBytes(k), cloneBytes(v), nil
}

func (t *boltTable) Ascend(txn Txn, from []byte, fn func(key, value []byte) bool) error {
	b, _, err := t.bucket(txn)
	if err != nil {
		return err
	}

	c := b.Cursor()
	for k, v := c.Seek(from); k != nil; k, v = c.Next() {
		if !fn(cloneBytes(k), cloneBytes(v)) {
			break
		}
	}
	return nil
}
