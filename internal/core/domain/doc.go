// Package domain defines the core domain models for sqld.
//
// Domain models are pure value objects without any IO dependencies:
//
//   - DatabaseID: fixed-size, byte-ordered database identifier
//   - FrameNo: WAL frame sequence number
//   - Errors: coded errors shared by storage, server and CLI
package domain
