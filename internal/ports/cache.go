package ports

import (
	"context"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// Port: read-through cache of each user's active route.
// Every route mutation must invalidate the owning user's entry.
type ActiveRouteCache interface {
	// Get returns the cached route; ok is false on a miss.
	Get(ctx context.Context, userID uuid.UUID) (route domain.Route, ok bool, err error)
	Put(ctx context.Context, userID uuid.UUID, route domain.Route) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
