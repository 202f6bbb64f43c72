// Package httpserver serves the sqld snapshot index API over net/http.
//
// Routes:
//
//   - GET  /v1/databases/{database}/snapshots/locate?frame_no=N
//   - POST /v1/databases/{database}/snapshots
//   - GET  /v1/databases/{database}/snapshots
//   - GET  /health, GET /version, GET /metrics
//
// Every route runs behind RequestID, Recover and AccessLog; API routes are
// also rate limited. {database} is a UUID, 32 hex characters, or
// name:<database name>.
package httpserver
