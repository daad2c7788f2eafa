package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"punch.reconciler/internal/core"
	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/repository"
)

// PunchHandler exposes the reconciliation engine over HTTP: webhook punch
// ingest, punch reprocessing, open session lookup and the stale-session
// sweep.
type PunchHandler struct {
	Engine   *core.Engine
	Sessions repository.SessionRepository
}

// IngestRequest is the webhook payload for one device's punch batch.
type IngestRequest struct {
	Timezone string             `json:"timezone,omitempty"`
	Punches  []model.PunchInput `json:"punches"`
}

// Ingest accepts a punch batch from a device webhook and reconciles it
// synchronously, returning the per-outcome counters.
func (h *PunchHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	if deviceID == "" {
		http.Error(w, "deviceId is required", http.StatusBadRequest)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Punches) == 0 {
		http.Error(w, "At least one punch is required", http.StatusBadRequest)
		return
	}

	result, err := h.Engine.Reconcile(r.Context(), model.SyncBatch{
		DeviceID: deviceID,
		Timezone: req.Timezone,
		Punches:  req.Punches,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("device_id", deviceID).Msg("Reconcile failed")
		http.Error(w, "Service error processing punch batch", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Reprocess resets a punch's derived state and runs it through the
// pipeline again.
func (h *PunchHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["punchId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid punch id", http.StatusBadRequest)
		return
	}

	result, err := h.Engine.Reprocess(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "Punch not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("punch_id", id).Msg("Reprocess failed")
		http.Error(w, "Service error reprocessing punch", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetOpenSession returns the employee's currently open session, if any.
func (h *PunchHandler) GetOpenSession(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]

	session, err := h.Sessions.FindOpen(r.Context(), employeeID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("employee_id", employeeID).Msg("Open session lookup failed")
		http.Error(w, "Service error", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "No open session", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// CloseStale runs the wall-clock stale-session sweep.
func (h *PunchHandler) CloseStale(w http.ResponseWriter, r *http.Request) {
	closed, err := h.Engine.SweepStaleSessions(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Stale session sweep failed")
		http.Error(w, "Service error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"closed": closed})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
