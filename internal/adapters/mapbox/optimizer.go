package mapbox

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/geo"
	"fieldroute-service/internal/platform/obs"
)

// MaxWaypoints is the Directions API coordinate ceiling. Requests above it
// are rejected before any provider call rather than silently truncated.
const MaxWaypoints = 25

const minutesPerSecond = 1.0 / 60.0

// Optimize orders the given stops into a driving itinerary.
//
// A greedy nearest-neighbor pass over planar distance produces the candidate
// visiting order; the Directions call then supplies real geometry and
// per-leg metrics for that order. Any provider failure degrades to a greedy
// order with nil metrics instead of an error, so the caller can always
// persist a structurally valid route.
func (c *Client) Optimize(
	ctx context.Context,
	coords []domain.Coordinates,
	origin domain.Origin,
) (_ domain.OptimizedRoute, err error) {
	defer obs.Time(ctx, "mapbox.Optimize")(&err)

	if len(coords) < 2 {
		return identityRoute(coords), nil
	}

	waypoints := len(coords)
	if origin.Fixed() {
		waypoints++
	}
	if waypoints > MaxWaypoints {
		return domain.OptimizedRoute{}, fmt.Errorf("optimize %d waypoints: %w", waypoints, domain.ErrTooManyStops)
	}

	order := greedyOrder(coords, origin)

	ordered := make([]domain.Coordinates, 0, waypoints)
	if origin.Fixed() {
		ordered = append(ordered, origin.Point)
	}
	for _, idx := range order {
		ordered = append(ordered, coords[idx])
	}

	result, derr := c.directions(ctx, ordered)
	if derr != nil {
		slog.WarnContext(ctx, "directions unavailable, falling back to greedy order", "error", derr)
		return fallbackRoute(coords, origin), nil
	}

	legDist := make([]*float64, len(order))
	legEta := make([]*float64, len(order))
	totalMeters := 0.0
	totalSeconds := 0.0
	for _, l := range result.Legs {
		totalMeters += l.DistanceMeters
		totalSeconds += l.DurationSeconds
	}

	// Leg i precedes ordered stop i when an origin leads the sequence;
	// without one, stop i is reached by leg i-1 and the first stop has no
	// inbound leg at all.
	for i := range order {
		legIndex := i
		if !origin.Fixed() {
			if i == 0 {
				continue
			}
			legIndex = i - 1
		}
		if legIndex >= len(result.Legs) {
			continue
		}

		d := result.Legs[legIndex].DistanceMeters * geo.MilesPerMeter
		t := result.Legs[legIndex].DurationSeconds * minutesPerSecond
		legDist[i] = &d
		legEta[i] = &t
	}

	totalMi := totalMeters * geo.MilesPerMeter
	totalMin := totalSeconds * minutesPerSecond

	return domain.OptimizedRoute{
		Order:           order,
		TotalDistanceMi: &totalMi,
		TotalEtaMin:     &totalMin,
		LegDistanceMi:   legDist,
		LegEtaMin:       legEta,
		Geometry:        result.Geometry,
	}, nil
}

// greedyOrder computes the candidate visiting order with planar nearest
// neighbor. The provider refines the result, so squared planar distance is
// precise enough here; without a fixed origin the input order stands.
func greedyOrder(coords []domain.Coordinates, origin domain.Origin) []int {
	order := make([]int, 0, len(coords))

	if !origin.Fixed() {
		for i := range coords {
			order = append(order, i)
		}
		return order
	}

	visited := make([]bool, len(coords))
	current := origin.Point

	for len(order) < len(coords) {
		best := -1
		bestDist := math.MaxFloat64

		for i, p := range coords {
			if visited[i] {
				continue
			}
			dLat := p.Lat - current.Lat
			dLng := p.Lng - current.Lng
			if d := dLat*dLat + dLng*dLng; d < bestDist {
				bestDist = d
				best = i
			}
		}

		order = append(order, best)
		visited[best] = true
		current = coords[best]
	}

	return order
}

// identityRoute handles the degenerate zero/one stop case without a provider
// call: identity order, zero totals, no per-leg metrics.
func identityRoute(coords []domain.Coordinates) domain.OptimizedRoute {
	order := make([]int, len(coords))
	for i := range order {
		order[i] = i
	}

	totalMi, totalMin := 0.0, 0.0
	return domain.OptimizedRoute{
		Order:           order,
		TotalDistanceMi: &totalMi,
		TotalEtaMin:     &totalMin,
		LegDistanceMi:   make([]*float64, len(coords)),
		LegEtaMin:       make([]*float64, len(coords)),
		Geometry:        append([]domain.Coordinates(nil), coords...),
	}
}

// fallbackRoute is the provider-failure result: great-circle greedy order,
// nil totals and per-leg metrics, geometry left as the unrouted input.
// Callers must read nil totals as "metrics unavailable", not a zero-length
// route.
func fallbackRoute(coords []domain.Coordinates, origin domain.Origin) domain.OptimizedRoute {
	var start *domain.Coordinates
	if origin.Fixed() {
		start = &origin.Point
	}

	return domain.OptimizedRoute{
		Order:         geo.NearestNeighborOrder(coords, start),
		LegDistanceMi: make([]*float64, len(coords)),
		LegEtaMin:     make([]*float64, len(coords)),
		Geometry:      append([]domain.Coordinates(nil), coords...),
		Degraded:      true,
	}
}
