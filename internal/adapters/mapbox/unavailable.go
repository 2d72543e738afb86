package mapbox

import (
	"context"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Unavailable stands in for the optimizer when no provider token is
// configured: every plan takes the degraded path, so routes still come back
// with a usable visiting order.
type Unavailable struct{}

var _ ports.RouteOptimizer = Unavailable{}

func (Unavailable) Optimize(
	_ context.Context,
	coords []domain.Coordinates,
	origin domain.Origin,
) (domain.OptimizedRoute, error) {
	if len(coords) < 2 {
		return identityRoute(coords), nil
	}
	return fallbackRoute(coords, origin), nil
}
