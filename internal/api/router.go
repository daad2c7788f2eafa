package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"punch.reconciler/internal/api/handler"
	"punch.reconciler/internal/core"
	"punch.reconciler/internal/ports/repository"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(engine *core.Engine, sessions repository.SessionRepository) *mux.Router {

	punchHandler := handler.PunchHandler{
		Engine:   engine,
		Sessions: sessions,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/devices/{deviceId}/punches", punchHandler.Ingest).Methods(http.MethodPost)
	api.HandleFunc("/punches/{punchId}/reprocess", punchHandler.Reprocess).Methods(http.MethodPost)
	api.HandleFunc("/employees/{employeeId}/session", punchHandler.GetOpenSession).Methods(http.MethodGet)
	api.HandleFunc("/maintenance/close-stale", punchHandler.CloseStale).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
