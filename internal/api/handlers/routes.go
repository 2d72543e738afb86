package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/services"
)

type RouteHandler struct {
	Builder    *services.RouteBuilder
	Lifecycle  *services.RouteLifecycle
	Reconciler *services.Reconciler
}

// Create builds a route from the selected companies. The optional origin
// pins the first leg to the rep's position; without it the optimizer picks
// the starting stop.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.CompanyIDs) < 2 {
		writeError(w, r, http.StatusBadRequest, "at least two company_ids are required")
		return
	}

	built, err := h.Builder.Build(r.Context(), auth.UserID(r.Context()), req.CompanyIDs, req.Origin.ToOrigin())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.FromRoute(built.Route)
	res.NavURL = built.NavURL
	reoptimized := !built.Degraded
	res.Reoptimized = &reoptimized
	writeJSON(w, r, http.StatusCreated, res)
}

func (h *RouteHandler) Active(w http.ResponseWriter, r *http.Request) {
	route, err := h.Lifecycle.ActiveRoute(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res := dto.FromRoute(route)
	res.NavURL = services.NavURL(route.Stops)
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	routeID, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}

	var req dto.UpdateRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	route, err := h.Lifecycle.SetStatus(r.Context(), auth.UserID(r.Context()), routeID, domain.RouteStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRoute(route))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	routeID, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}

	if err := h.Lifecycle.Delete(r.Context(), auth.UserID(r.Context()), routeID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddStop adds a company to an in-progress route and re-plans the remaining
// tail. A 200 with reoptimized=false means the stop was appended without a
// rebuild (mapping provider unavailable).
func (h *RouteHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	routeID, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}

	var req dto.AddStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyID == "" {
		writeError(w, r, http.StatusBadRequest, "company_id is required")
		return
	}

	if ok, err := h.ownsRoute(r, routeID); err != nil {
		writeDomainError(w, r, err)
		return
	} else if !ok {
		writeDomainError(w, r, domain.ErrNotFound)
		return
	}

	var position *domain.Coordinates
	if req.Position != nil {
		position = &domain.Coordinates{Lat: req.Position.Lat, Lng: req.Position.Lng}
	}

	result, err := h.Reconciler.AddStop(r.Context(), routeID, req.CompanyID, position)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.FromRoute(result.Route)
	res.NavURL = services.NavURL(result.Route.Stops)
	res.Reoptimized = &result.Reoptimized
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) History(w http.ResponseWriter, r *http.Request) {
	var status *domain.RouteStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.RouteStatus(s)
		status = &st
	}

	routes, err := h.Lifecycle.History(r.Context(), auth.UserID(r.Context()), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		res.Routes = append(res.Routes, dto.FromRoute(route))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) ownsRoute(r *http.Request, routeID uuid.UUID) (bool, error) {
	route, err := h.Reconciler.Routes.GetRoute(r.Context(), routeID)
	if err != nil {
		return false, err
	}
	return route.UserID == auth.UserID(r.Context()), nil
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, param+" must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}
