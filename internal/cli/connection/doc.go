// Package connection is the HTTP client sqld-snapshot uses to talk to a
// running sqld-snapshotd.
//
// Responses arrive in the daemon's envelope
// {code, message, request_id, timestamp, data}; ParseResponse unwraps data
// on success and turns error envelopes into *APIError.
package connection
