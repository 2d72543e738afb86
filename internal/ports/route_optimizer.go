package ports

import (
	"context"

	"fieldroute-service/internal/domain"
)

// Contract for turning an unordered coordinate set into a driving itinerary.
type RouteOptimizer interface {
	// Optimize returns a visiting order plus geometry and leg metrics.
	// Provider outages surface as a Degraded result, never as an error;
	// the only errors are request-shape rejections before the provider call.
	Optimize(ctx context.Context, coords []domain.Coordinates, origin domain.Origin) (domain.OptimizedRoute, error)
}

// Contract for resolving a postal address to coordinates.
type Geocoder interface {
	// Geocode returns the best-match coordinates for an address.
	// found is false when the provider has no result for it.
	Geocode(ctx context.Context, address string) (coords domain.Coordinates, found bool, err error)
}
