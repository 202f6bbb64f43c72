// Package command defines the sqld-snapshot commands using urfave/cli/v2:
//
//   - root.go: application, global flags and output helpers
//   - snapshot.go: locate, register and list
//   - system.go: health and version
//
// Every command talks to sqld-snapshotd over HTTP and prints the result in
// the format selected by --output.
package command
