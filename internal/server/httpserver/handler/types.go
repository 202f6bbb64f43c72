package handler

import (
	"time"

	"github.com/gamebox/sqld/internal/storage/snapshotindex"
)

// Response is the standard API response envelope. All JSON responses use
// this format; /metrics does not.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// SnapshotResponse is one registered range.
type SnapshotResponse struct {
	DatabaseID   string `json:"database_id" yaml:"database_id"`
	StartFrameNo uint64 `json:"start_frame_no" yaml:"start_frame_no"`
	EndFrameNo   uint64 `json:"end_frame_no" yaml:"end_frame_no"`
	SnapshotID   string `json:"snapshot_id" yaml:"snapshot_id"`
}

// RegisterSnapshotRequest is the body of POST /v1/databases/{database}/snapshots.
// An empty SnapshotID asks the server to generate one.
type RegisterSnapshotRequest struct {
	StartFrameNo *uint64 `json:"start_frame_no"`
	EndFrameNo   *uint64 `json:"end_frame_no"`
	SnapshotID   string  `json:"snapshot_id,omitempty"`
}

// ListSnapshotsResponse is the body of GET /v1/databases/{database}/snapshots.
type ListSnapshotsResponse struct {
	DatabaseID string             `json:"database_id" yaml:"database_id"`
	Items      []SnapshotResponse `json:"items" yaml:"items"`
	Total      int                `json:"total" yaml:"total"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status" yaml:"status"`
	Engine  string `json:"engine" yaml:"engine"`
	Version string `json:"version" yaml:"version"`
	Time    string `json:"time" yaml:"time"`
}

func entryToResponse(e snapshotindex.Entry) SnapshotResponse {
	return SnapshotResponse{
		DatabaseID:   e.Key.DatabaseID.String(),
		StartFrameNo: e.Key.StartFrameNo,
		EndFrameNo:   e.Key.EndFrameNo,
		SnapshotID:   e.Meta.SnapshotID.String(),
	}
}
