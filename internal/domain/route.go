package domain

import (
	"time"

	"github.com/google/uuid"
)

type RouteStatus string

const (
	RoutePlanning  RouteStatus = "planning"
	RouteActive    RouteStatus = "active"
	RouteCompleted RouteStatus = "completed"
)

// ValidRouteStatus reports whether s is one of the three lifecycle states.
func ValidRouteStatus(s RouteStatus) bool {
	switch s {
	case RoutePlanning, RouteActive, RouteCompleted:
		return true
	}
	return false
}

// A single stop in a planned visiting itinerary.
// StopIndex is the authoritative position: contiguous and unique within one
// route, rewritten wholesale when the remaining tail is re-optimized.
// Leg metrics are nil for the first stop of an unanchored route and for every
// stop planned while the routing provider was unavailable.
type RouteStop struct {
	ID                 uuid.UUID
	RouteID            uuid.UUID
	CompanyID          string
	StopIndex          int
	Name               string
	Lat                float64
	Lng                float64
	Street             *string
	City               *string
	State              *string
	PostalCode         *string
	DistanceFromPrevMi *float64
	EtaFromPrevMin     *float64
	Completed          bool
	CompletedAt        *time.Time
}

func (s RouteStop) Coordinates() Coordinates { return Coordinates{Lat: s.Lat, Lng: s.Lng} }

// A planned visiting itinerary for one user.
// Totals are nil when the routing provider was unavailable at build time
// (metrics unavailable, not a zero-length route).
type Route struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Stops            []RouteStop
	TotalDistanceMi  *float64
	TotalEtaMin      *float64
	CurrentStopIndex int
	Status           RouteStatus
	GeometryGeoJSON  *string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Partition splits stops into completed and remaining, preserving itinerary order.
func (r Route) Partition() (completed, remaining []RouteStop) {
	for _, s := range r.Stops {
		if s.Completed {
			completed = append(completed, s)
		} else {
			remaining = append(remaining, s)
		}
	}
	return completed, remaining
}

// FirstUncompletedIndex returns the position of the first stop not yet
// completed, or len(Stops) when the itinerary is finished.
func (r Route) FirstUncompletedIndex() int {
	for i, s := range r.Stops {
		if !s.Completed {
			return i
		}
	}
	return len(r.Stops)
}

// ReindexStops rewrites StopIndex to match slice position after a merge.
func ReindexStops(stops []RouteStop) {
	for i := range stops {
		stops[i].StopIndex = i
	}
}
