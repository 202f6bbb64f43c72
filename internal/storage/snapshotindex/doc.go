// Package snapshotindex maps (database, WAL frame range) to the snapshot
// covering that range.
//
// Each registered range is one row of the "snapshot-store-db" table:
//
//	key   [database_id 16B][start_frame_no 8B BE][end_frame_no 8B BE]
//	value protobuf wire record { 1: snapshot_id (16 bytes) }
//
// Big-endian frame numbers make byte order equal numeric order, so rows
// sort by database, then start frame, then end frame. Locate answers
// "which snapshot contains frame F of database D" with a single
// greatest-key-less-than-or-equal lookup of (D, F, MaxFrameNo) followed by
// a database and containment check.
//
// Registration writes into a transaction owned by the caller so it commits
// atomically with the caller's other bookkeeping. Lookups open and release
// their own read transaction.
package snapshotindex
