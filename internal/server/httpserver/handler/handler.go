package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/storage/snapshotindex"
	"github.com/gamebox/sqld/internal/telemetry/logger"
)

// SnapshotIndex is the part of *snapshotindex.Store the handlers use.
type SnapshotIndex interface {
	LocateEntry(ctx context.Context, db domain.DatabaseID, frameNo domain.FrameNo) (snapshotindex.Entry, bool, error)
	List(ctx context.Context, db domain.DatabaseID) ([]snapshotindex.Entry, error)
	Update(ctx context.Context, fn func(txn kv.WriteTxn) error) error
	Register(ctx context.Context, txn kv.WriteTxn, db domain.DatabaseID, start, end domain.FrameNo, snapshotID uuid.UUID) error
	Ping(ctx context.Context) error
}

// Handler serves the snapshot API.
type Handler struct {
	index  SnapshotIndex
	engine string
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler over index. engine is reported by /health.
func New(index SnapshotIndex, engine string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		index:  index,
		engine: engine,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// Route patterns, shared with the router for per-route middleware.
const (
	RouteHealth   = "GET /health"
	RouteVersion  = "GET /version"
	RouteLocate   = "GET /v1/databases/{database}/snapshots/locate"
	RouteRegister = "POST /v1/databases/{database}/snapshots"
	RouteList     = "GET /v1/databases/{database}/snapshots"
)

// Routes lists every pattern served by Handler.
func Routes() []string {
	return []string{RouteHealth, RouteVersion, RouteLocate, RouteRegister, RouteList}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc(RouteHealth, h.handleHealth)
	h.mux.HandleFunc(RouteVersion, h.handleVersion)

	h.mux.HandleFunc(RouteLocate, h.handleLocate)
	h.mux.HandleFunc(RouteRegister, h.handleRegister)
	h.mux.HandleFunc(RouteList, h.handleList)
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	WriteJSON(w, status, NewResponse(requestID(r), data), h.logger)
}

// writeError writes an error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	WriteJSON(w, status, NewErrorResponse(requestID(r), code, message), h.logger)
}

func requestID(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}

// WriteJSON encodes v as the response body. It is exported for middleware
// that answers before a handler runs.
func WriteJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts errors from the index to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if code := domain.GetErrorCode(err); code != "" {
		status := errorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("snapshot index error", "code", code, "error", err)
		}
		h.writeError(w, r, status, code, err.Error())
		return
	}

	if r.Context().Err() != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrServiceUnavailable.Code, "request canceled")
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message)
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.ErrSnapshotNotFound.Code:
		return http.StatusNotFound
	case domain.ErrInvalidRange.Code, domain.ErrBadRequest.Code,
		domain.ErrInvalidArgument.Code, domain.ErrMissingArgument.Code:
		return http.StatusBadRequest
	case domain.ErrRangeOverlap.Code:
		return http.StatusConflict
	case domain.ErrRateLimited.Code:
		return http.StatusTooManyRequests
	case domain.ErrIndexTxn.Code, domain.ErrServiceUnavailable.Code:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
