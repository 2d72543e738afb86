package dto

import (
	"encoding/json"
	"time"

	"fieldroute-service/internal/domain"
)

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OriginRequest accepts either a {"lat","lng"} object pinning the route's
// start or any string (clients send "anywhere") to let the optimizer pick
// the first stop.
type OriginRequest struct {
	Point    *PointRequest
	AnyStart bool
}

func (o *OriginRequest) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.AnyStart = true
		return nil
	}

	var p PointRequest
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	o.Point = &p
	return nil
}

func (o *OriginRequest) ToOrigin() domain.Origin {
	if o == nil || o.AnyStart || o.Point == nil {
		return domain.AnyStart()
	}
	return domain.FixedOrigin(o.Point.Lat, o.Point.Lng)
}

type CreateRouteRequest struct {
	CompanyIDs []string       `json:"company_ids"`
	Origin     *OriginRequest `json:"origin"`
}

type UpdateRouteRequest struct {
	Status string `json:"status"`
}

type AddStopRequest struct {
	CompanyID string        `json:"company_id"`
	Position  *PointRequest `json:"position"`
}

type RouteStopResponse struct {
	ID                 string     `json:"id"`
	CompanyID          string     `json:"company_id"`
	StopIndex          int        `json:"stop_index"`
	Name               string     `json:"name"`
	Lat                float64    `json:"lat"`
	Lng                float64    `json:"lng"`
	Street             *string    `json:"street,omitempty"`
	City               *string    `json:"city,omitempty"`
	State              *string    `json:"state,omitempty"`
	PostalCode         *string    `json:"postal_code,omitempty"`
	DistanceFromPrevMi *float64   `json:"distance_from_prev_mi,omitempty"`
	EtaFromPrevMin     *float64   `json:"eta_from_prev_min,omitempty"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type RouteResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Stops            []RouteStopResponse `json:"stops"`
	TotalDistanceMi  *float64            `json:"total_distance_mi,omitempty"`
	TotalEtaMin      *float64            `json:"total_eta_min,omitempty"`
	CurrentStopIndex int                 `json:"current_stop_index"`
	Geometry         json.RawMessage     `json:"geometry,omitempty"`
	NavURL           string              `json:"nav_url,omitempty"`
	Reoptimized      *bool               `json:"reoptimized,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

func FromRoute(r domain.Route) RouteResponse {
	res := RouteResponse{
		ID:               r.ID.String(),
		Status:           string(r.Status),
		Stops:            make([]RouteStopResponse, 0, len(r.Stops)),
		TotalDistanceMi:  r.TotalDistanceMi,
		TotalEtaMin:      r.TotalEtaMin,
		CurrentStopIndex: r.CurrentStopIndex,
		CreatedAt:        r.CreatedAt,
		CompletedAt:      r.CompletedAt,
	}
	if r.GeometryGeoJSON != nil {
		res.Geometry = json.RawMessage(*r.GeometryGeoJSON)
	}
	for _, s := range r.Stops {
		res.Stops = append(res.Stops, RouteStopResponse{
			ID:                 s.ID.String(),
			CompanyID:          s.CompanyID,
			StopIndex:          s.StopIndex,
			Name:               s.Name,
			Lat:                s.Lat,
			Lng:                s.Lng,
			Street:             s.Street,
			City:               s.City,
			State:              s.State,
			PostalCode:         s.PostalCode,
			DistanceFromPrevMi: s.DistanceFromPrevMi,
			EtaFromPrevMin:     s.EtaFromPrevMin,
			Completed:          s.Completed,
			CompletedAt:        s.CompletedAt,
		})
	}
	return res
}
