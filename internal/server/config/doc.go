// Package config defines the configuration of sqld-snapshotd.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, as a struct and as a koanf map
//   - verify.go: validation run before anything is opened
//   - summary.go: key settings as log attributes
//
// Loading is done by internal/infra/confloader (defaults, YAML file,
// SQLD_ environment variables).
package config
