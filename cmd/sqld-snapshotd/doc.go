// Package main provides the entry point for sqld-snapshotd.
//
// sqld-snapshotd hosts the snapshot index on a bolt or badger environment
// and serves it over HTTP together with /health, /version and /metrics.
//
// Configuration is read from defaults, an optional YAML file (--config) and
// SQLD_* environment variables, in that order. Edits to log.level in the
// file are applied without a restart.
package main
