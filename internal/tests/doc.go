// Package tests holds end-to-end tests that run sqld-snapshot commands
// against the full HTTP stack on a bolt-backed index.
package tests
