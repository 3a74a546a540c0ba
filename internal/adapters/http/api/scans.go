// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lunalira/transit/internal/adapters/repository"
	service "github.com/lunalira/transit/internal/app"
)

// ScansHandler handles scan run submission and inspection.
type ScansHandler struct {
	deps Dependencies
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(deps Dependencies) *ScansHandler {
	return &ScansHandler{deps: deps}
}

// HandlePostScan handles POST /scans requests.
func (h *ScansHandler) HandlePostScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_scan"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	runReq, err := req.toRunRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, err := h.deps.SubmitRun(r.Context(), runReq)
	switch {
	case errors.Is(err, service.ErrBacklogged):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	status := repository.RunStatusPending
	if run, err := h.deps.GetRun(r.Context(), id); err == nil {
		status = run.Status
	}
	writeJSON(w, http.StatusAccepted, scanAck{RunID: id, Status: status})
}

// HandleGetScan handles GET /scans/{run_id} requests.
func (h *ScansHandler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scan"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/scans/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	run, err := h.deps.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}
