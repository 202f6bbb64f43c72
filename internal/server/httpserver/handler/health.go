package handler

import (
	"net/http"
	"time"

	"github.com/gamebox/sqld/internal/core/domain"
	"github.com/gamebox/sqld/internal/infra/buildinfo"
)

// handleHealth handles GET /health. It reports 503 when the storage
// environment cannot start a read transaction.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Engine:  h.engine,
		Version: buildinfo.Get().Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.index.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		w.Header().Set("X-Error-Code", domain.ErrServiceUnavailable.Code)
		WriteJSON(w, http.StatusServiceUnavailable, &Response{
			Code:      domain.ErrServiceUnavailable.Code,
			Message:   err.Error(),
			RequestID: requestID(r),
			Timestamp: time.Now().UnixMilli(),
			Data:      resp,
		}, h.logger)
		return
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleVersion handles GET /version.
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}
