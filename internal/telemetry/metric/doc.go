// Package metric owns the Prometheus registry of a sqld process.
//
// Registry carries the HTTP request collectors the server middleware
// updates, the Go runtime and process collectors, and a build info series.
// Subsystems (the snapshot index, storage engines) register their own
// collectors on Registry.Prometheus().
//
// Metrics are exposed by Handler at /metrics.
package metric
