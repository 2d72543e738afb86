package handlers

import (
	"net/http"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/services"
)

type CheckInHandler struct {
	Service *services.CheckIns
}

// Create records a field visit. When the visit matches a stop on the active
// route the response carries the reconciled route; reoptimized=false means
// the remaining stops kept their previous order.
func (h *CheckInHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyID == "" {
		writeError(w, r, http.StatusBadRequest, "company_id is required")
		return
	}

	result, err := h.Service.Create(r.Context(), auth.UserID(r.Context()), services.CheckInRequest{
		CompanyID: req.CompanyID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Note:      req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.CreateCheckInResponse{
		CheckIn:        dto.FromCheckIn(result.CheckIn),
		Reoptimized:    result.Reoptimized,
		RouteCompleted: result.RouteCompleted,
	}
	if result.Route != nil {
		route := dto.FromRoute(*result.Route)
		route.NavURL = services.NavURL(result.Route.Stops)
		res.Route = &route
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (h *CheckInHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	checkInID, ok := pathUUID(w, r, "checkInID")
	if !ok {
		return
	}

	var req dto.UpdateCheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.Service.UpdateNote(r.Context(), auth.UserID(r.Context()), checkInID, req.Note)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromCheckIn(updated))
}
