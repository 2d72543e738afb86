package handlers

import (
	"net/http"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/ports"
	"fieldroute-service/internal/services"
)

type SyncHandler struct {
	Syncer *services.CompanySyncer
	Logs   ports.SyncLogRepository
}

// Trigger runs a CRM company sync inline. The sync can take a while with a
// cold geocode cache; clients poll Status instead of holding the request
// open, but a direct call still gets the count back.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.Syncer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "company sync is not configured")
		return
	}

	synced, err := h.Syncer.Sync(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SyncResponse{CompaniesSynced: synced})
}

// Status reports the most recent sync run.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	log, err := h.Logs.LatestSync(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SyncStatusResponse{
		Status:          log.Status,
		StartedAt:       log.StartedAt,
		FinishedAt:      log.FinishedAt,
		CompaniesSynced: log.CompaniesSynced,
		Error:           log.Error,
	})
}
