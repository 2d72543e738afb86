package dto

import (
	"time"

	"fieldroute-service/internal/domain"
)

type CreateCheckInRequest struct {
	CompanyID string  `json:"company_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Note      string  `json:"note"`
}

type UpdateCheckInRequest struct {
	Note string `json:"note"`
}

type CheckInResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCheckInResponse carries the visit record plus the reconciled route
// when the visit completed a stop on the active route.
type CreateCheckInResponse struct {
	CheckIn        CheckInResponse `json:"check_in"`
	Route          *RouteResponse  `json:"route,omitempty"`
	Reoptimized    bool            `json:"reoptimized"`
	RouteCompleted bool            `json:"route_completed"`
}

func FromCheckIn(c domain.CheckIn) CheckInResponse {
	return CheckInResponse{
		ID:        c.ID.String(),
		CompanyID: c.CompanyID,
		Lat:       c.Lat,
		Lng:       c.Lng,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
	}
}
