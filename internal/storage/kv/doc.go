// Package kv provides the embedded transactional key-value environment
// used by sqld's durable indexes.
//
// An Env hosts named tables in one store and offers caller-owned write
// transactions, snapshot-isolated read transactions and an ordered
// "greatest key less than or equal to" lookup (Table.SeekLE).
//
// Backends:
//
//   - bolt: B+tree file, one bucket per table, single writer / many readers
//   - badger: LSM directory, tables are length-prefixed key namespaces
package kv
