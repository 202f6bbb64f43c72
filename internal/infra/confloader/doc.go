// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults supplied by the caller (WithDefaults)
//  2. A YAML file (WithConfigFile)
//  3. Environment variables (SQLD_ prefix by default)
//
// Environment names are matched against the known keys so that keys
// containing underscores survive: SQLD_STORAGE_BOLT_NO_SYNC sets
// storage.bolt.no_sync when that key has a default.
//
// Watcher reports changes to a configuration file using fsnotify.
package confloader
