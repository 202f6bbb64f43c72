package snapshotindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/storage/kv"
)

// TableName is the table holding the index inside the shared environment.
const TableName = "snapshot-store-db"

// Entry is one registered range and its metadata.
type Entry struct {
	Key  Key
	Meta Meta
}

// Store is the durable snapshot index.
//
// A Store holds no state besides its environment and table handles and is
// safe for concurrent use. All methods block on storage I/O.
type Store struct {
	env     kv.Env
	table   kv.Table
	logger  *slog.Logger
	metrics *Metrics
	strict  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records lookups and registrations in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithStrictRanges makes Register reject inverted ranges and ranges that
// overlap one already registered for the same database. Without it the
// caller is trusted to keep ranges disjoint.
func WithStrictRanges(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// Open creates or opens the index table in env. Failure is reported as
// domain.ErrIndexInit and should abort startup.
func Open(env kv.Env, opts ...Option) (*Store, error) {
	s := &Store{
		env:    env,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if env == nil {
		return nil, domain.ErrIndexInit.WithDetails("nil environment")
	}

	table, err := env.OpenTable(TableName)
	if err != nil {
		return nil, domain.ErrIndexInit.WithDetails("open table " + TableName).Wrap(err)
	}
	s.table = table

	s.logger.Info("snapshot index opened",
		"engine", env.Engine(),
		"table", TableName,
		"strict_ranges", s.strict)

	return s, nil
}

// Env returns the environment hosting the index, for callers that need to
// open the write transaction passed to Register.
func (s *Store) Env() kv.Env {
	return s.env
}

// Ping opens and releases a read transaction, reporting whether the
// environment is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn, err := s.env.BeginRead()
	if err != nil {
		return domain.ErrIndexTxn.WithDetails("begin read").Wrap(err)
	}
	return txn.Rollback()
}

// Register records that snapshotID covers frames [start, end] of
// databaseID. The row is written in txn, which the caller owns: it becomes
// visible when the caller commits, and commit-time failures surface there.
func (s *Store) Register(ctx context.Context, txn kv.WriteTxn, databaseID domain.DatabaseID,
	start, end domain.FrameNo, snapshotID uuid.UUID) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() { s.metrics.observeRegister(err) }()

	key := Key{DatabaseID: databaseID, StartFrameNo: start, EndFrameNo: end}

	if s.strict {
		if err := s.checkRange(txn, key); err != nil {
			return err
		}
	}

	if err := s.table.Put(txn, EncodeKey(key), EncodeMeta(Meta{SnapshotID: snapshotID})); err != nil {
		return domain.ErrIndexTxn.WithDetails("put " + key.String()).Wrap(err)
	}

	s.logger.Debug("snapshot range registered",
		"database_id", databaseID.String(),
		"start_frame_no", start,
		"end_frame_no", end,
		"snapshot_id", snapshotID.String())
	return nil
}

// checkRange validates key against the ranges visible in txn.
func (s *Store) checkRange(txn kv.Txn, key Key) error {
	if key.StartFrameNo > key.EndFrameNo {
		return domain.ErrInvalidRange.WithDetails(key.String())
	}

	// The candidate with the greatest start <= key.EndFrameNo is the only
	// one that can reach into [start, end] when existing ranges are disjoint.
	entry, found, err := s.seek(txn, ProbeKey(key.DatabaseID, key.EndFrameNo))
	if err != nil || !found {
		return err
	}
	if entry.Key.Overlaps(key) {
		return domain.ErrRangeOverlap.WithDetails(
			fmt.Sprintf("%s overlaps %s", key, entry.Key))
	}
	return nil
}

// Update runs fn in a new write transaction and commits it when fn returns
// nil. Errors from fn are returned unchanged; begin and commit failures are
// domain.ErrIndexTxn.
func (s *Store) Update(ctx context.Context, fn func(txn kv.WriteTxn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn, err := s.env.BeginWrite()
	if err != nil {
		return domain.ErrIndexTxn.WithDetails("begin write").Wrap(err)
	}
	defer txn.Rollback()

	if err := fn(txn); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return domain.ErrIndexTxn.WithDetails("commit").Wrap(err)
	}
	return nil
}

// Locate returns the metadata of the snapshot covering frameNo of
// databaseID. found is false when no registered range contains the frame.
func (s *Store) Locate(ctx context.Context, databaseID domain.DatabaseID, frameNo domain.FrameNo) (Meta, bool, error) {
	entry, found, err := s.LocateEntry(ctx, databaseID, frameNo)
	return entry.Meta, found, err
}

// LocateEntry is Locate returning the covering range as well.
func (s *Store) LocateEntry(ctx context.Context, databaseID domain.DatabaseID, frameNo domain.FrameNo) (entry Entry, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	started := time.Now()
	defer func() { s.metrics.observeLocate(found, err, time.Since(started)) }()

	txn, err := s.env.BeginRead()
	if err != nil {
		return Entry{}, false, domain.ErrIndexTxn.WithDetails("begin read").Wrap(err)
	}
	defer txn.Rollback()

	entry, found, err = s.seek(txn, ProbeKey(databaseID, frameNo))
	if err != nil {
		if domain.IsCorruption(err) {
			s.logger.Error("snapshot index corruption",
				"database_id", databaseID.String(),
				"frame_no", frameNo,
				"error", err)
		}
		return Entry{}, false, err
	}

	// The nearest key may belong to a smaller database, or end before frameNo.
	if !found || entry.Key.DatabaseID != databaseID || !entry.Key.Contains(frameNo) {
		s.logger.Debug("no snapshot covers frame",
			"database_id", databaseID.String(),
			"frame_no", frameNo)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// seek returns the decoded entry with the greatest key <= probe.
func (s *Store) seek(txn kv.Txn, probe Key) (Entry, bool, error) {
	k, v, err := s.table.SeekLE(txn, EncodeKey(probe))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, domain.ErrIndexTxn.WithDetails("seek").Wrap(err)
	}

	key, err := DecodeKey(k)
	if err != nil {
		return Entry{}, false, err
	}
	meta, err := DecodeMeta(v)
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Key: key, Meta: meta}, true, nil
}

// List returns every range registered for databaseID in ascending order.
func (s *Store) List(ctx context.Context, databaseID domain.DatabaseID) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn, err := s.env.BeginRead()
	if err != nil {
		return nil, domain.ErrIndexTxn.WithDetails("begin read").Wrap(err)
	}
	defer txn.Rollback()

	var (
		entries []Entry
		decErr  error
	)
	from := EncodeKey(Key{DatabaseID: databaseID})
	err = s.table.Ascend(txn, from, func(k, v []byte) bool {
		key, err := DecodeKey(k)
		if err != nil {
			decErr = err
			return false
		}
		if key.DatabaseID != databaseID {
			return false
		}
		meta, err := DecodeMeta(v)
		if err != nil {
			decErr = err
			return false
		}
		entries = append(entries, Entry{Key: key, Meta: meta})
		return true
	})
	if err != nil {
		return nil, domain.ErrIndexTxn.WithDetails("scan").Wrap(err)
	}
	if decErr != nil {
		return nil, decErr
	}
	return entries, nil
}
