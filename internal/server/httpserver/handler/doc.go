// Package handler implements the HTTP endpoints of sqld-snapshotd.
//
//   - snapshot.go: locate, register and list snapshot ranges
//   - health.go: health and version
//   - types.go: response envelope and request/response bodies
//
// Every JSON response uses the Response envelope. Domain error codes map to
// HTTP status in errorCodeToHTTPStatus.
package handler
