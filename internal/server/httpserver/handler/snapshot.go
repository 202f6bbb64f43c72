package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/storage/kv"
	"github.com/gamebox/sqld/internal/telemetry/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// handleLocate handles GET /v1/databases/{database}/snapshots/locate?frame_no=N.
func (h *Handler) handleLocate(w http.ResponseWriter, r *http.Request) {
	db, ok := h.databaseID(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("frame_no")
	if raw == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "frame_no is required")
		return
	}
	frameNo, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code,
			fmt.Sprintf("frame_no %q is not an unsigned 64-bit integer", raw))
		return
	}

	entry, found, err := h.index.LocateEntry(r.Context(), db, frameNo)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !found {
		h.handleServiceError(w, r, domain.ErrSnapshotNotFound.WithDetails(
			fmt.Sprintf("database %s frame %d", db, frameNo)))
		return
	}

	h.writeJSON(w, r, http.StatusOK, entryToResponse(entry))
}

// handleRegister handles POST /v1/databases/{database}/snapshots.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	db, ok := h.databaseID(w, r)
	if !ok {
		return
	}

	var req RegisterSnapshotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body: "+err.Error())
		return
	}
	if req.StartFrameNo == nil || req.EndFrameNo == nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code,
			"start_frame_no and end_frame_no are required")
		return
	}

	snapshotID := uuid.New()
	if req.SnapshotID != "" {
		parsed, err := uuid.Parse(req.SnapshotID)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code,
				"snapshot_id: "+err.Error())
			return
		}
		snapshotID = parsed
	}

	start, end := *req.StartFrameNo, *req.EndFrameNo
	err := h.index.Update(r.Context(), func(txn kv.WriteTxn) error {
		return h.index.Register(r.Context(), txn, db, start, end, snapshotID)
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.L(r.Context()).Info("snapshot registered",
		"database_id", db.String(),
		"start_frame_no", start,
		"end_frame_no", end,
		"snapshot_id", snapshotID.String())

	h.writeJSON(w, r, http.StatusCreated, SnapshotResponse{
		DatabaseID:   db.String(),
		StartFrameNo: start,
		EndFrameNo:   end,
		SnapshotID:   snapshotID.String(),
	})
}

// handleList handles GET /v1/databases/{database}/snapshots.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	db, ok := h.databaseID(w, r)
	if !ok {
		return
	}

	entries, err := h.index.List(r.Context(), db)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]SnapshotResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryToResponse(e))
	}
	h.writeJSON(w, r, http.StatusOK, ListSnapshotsResponse{
		DatabaseID: db.String(),
		Items:      items,
		Total:      len(items),
	})
}

// databaseID resolves the {database} path segment, writing a 400 when it
// is not a valid reference.
func (h *Handler) databaseID(w http.ResponseWriter, r *http.Request) (domain.DatabaseID, bool) {
	db, err := domain.ResolveDatabaseID(r.PathValue("database"))
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			h.writeError(w, r, http.StatusBadRequest, de.Code, err.Error())
		} else {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, err.Error())
		}
		return domain.DatabaseID{}, false
	}
	return db, true
}
