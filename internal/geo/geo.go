// Package geo provides the great-circle math shared by route planning,
// proximity detection, and company browsing.
package geo

import (
	"math"
	"sort"

	"fieldroute-service/internal/domain"
)

const earthRadiusMeters = 6371000.0

// MilesPerMeter converts provider distances (meters) to the miles shown to
// reps. Shared so the adapter and this package cannot drift.
const MilesPerMeter = 0.000621371

// DistanceMeters computes the haversine distance between two points,
// assuming a spherical Earth. Coordinates are not validated.
func DistanceMeters(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func DistanceMiles(a, b domain.Coordinates) float64 {
	return DistanceMeters(a, b) * MilesPerMeter
}

// FilterByRadius keeps companies within radiusMi of center, nearest first.
// Companies without coordinates are dropped. Ties keep input order.
func FilterByRadius(
	companies []domain.Company,
	center domain.Coordinates,
	radiusMi float64,
) []domain.CompanyWithDistance {
	out := make([]domain.CompanyWithDistance, 0, len(companies))
	for _, c := range companies {
		if !c.HasCoordinates() {
			continue
		}

		d := DistanceMiles(center, c.Coordinates())
		if d <= radiusMi {
			out = append(out, domain.CompanyWithDistance{Company: c, DistanceMi: d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMi < out[j].DistanceMi })
	return out
}

// NearestNeighborOrder returns a greedy visiting order over great-circle
// distance, used when the routing provider cannot supply one. Seeded at
// start when given; otherwise the first point becomes the first stop. Ties
// keep first-encountered order. O(n^2), acceptable at provider-limit sizes.
func NearestNeighborOrder(points []domain.Coordinates, start *domain.Coordinates) []int {
	if len(points) == 0 {
		return []int{}
	}

	order := make([]int, 0, len(points))
	visited := make([]bool, len(points))

	var current domain.Coordinates
	if start != nil {
		current = *start
	} else {
		order = append(order, 0)
		visited[0] = true
		current = points[0]
	}

	for len(order) < len(points) {
		best := -1
		bestDist := math.MaxFloat64

		for i, p := range points {
			if visited[i] {
				continue
			}
			if d := DistanceMeters(current, p); d < bestDist {
				bestDist = d
				best = i
			}
		}

		order = append(order, best)
		visited[best] = true
		current = points[best]
	}

	return order
}
