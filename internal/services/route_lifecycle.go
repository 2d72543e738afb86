package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// RouteLifecycle covers the route operations that don't involve the
// optimizer: activation, completion, history, and the active-route read path
// with its cache in front.
type RouteLifecycle struct {
	Routes ports.RouteRepository
	Cache  ports.ActiveRouteCache
}

// ActiveRoute returns the user's single active route, reading through the
// cache. Cache trouble falls through to Postgres; a cache that can't be
// written just means the next read pays the query again.
func (l *RouteLifecycle) ActiveRoute(ctx context.Context, userID uuid.UUID) (_ domain.Route, err error) {
	defer obs.Time(ctx, "routes.Active")(&err)

	if l.Cache != nil {
		route, ok, cerr := l.Cache.Get(ctx, userID)
		if cerr != nil {
			slog.WarnContext(ctx, "active route cache read failed",
				"user_id", userID, "error", cerr)
		} else if ok {
			return route, nil
		}
	}

	route, err := l.Routes.GetActiveRoute(ctx, userID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("active route: %w", err)
	}

	if l.Cache != nil {
		if cerr := l.Cache.Put(ctx, userID, route); cerr != nil {
			slog.WarnContext(ctx, "active route cache write failed",
				"user_id", userID, "error", cerr)
		}
	}
	return route, nil
}

// SetStatus moves the caller's route between planning, active, and completed.
// Setting completed stamps the completion time.
func (l *RouteLifecycle) SetStatus(
	ctx context.Context,
	userID, routeID uuid.UUID,
	status domain.RouteStatus,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "routes.SetStatus")(&err)

	if !domain.ValidRouteStatus(status) {
		return domain.Route{}, fmt.Errorf(
			"set route status: unknown status %q: %w", status, domain.ErrInvalidRequest,
		)
	}

	route, err := l.ownedRoute(ctx, userID, routeID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("set route status: %w", err)
	}

	var completedAt *time.Time
	if status == domain.RouteCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	if err := l.Routes.UpdateRouteStatus(ctx, route.ID, status, completedAt); err != nil {
		return domain.Route{}, fmt.Errorf("set route status: %w", err)
	}
	route.Status = status
	route.CompletedAt = completedAt

	l.invalidate(ctx, userID)
	return route, nil
}

// Delete removes the caller's route and its stops.
func (l *RouteLifecycle) Delete(ctx context.Context, userID, routeID uuid.UUID) (err error) {
	defer obs.Time(ctx, "routes.Delete")(&err)

	route, err := l.ownedRoute(ctx, userID, routeID)
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	if err := l.Routes.DeleteRoute(ctx, route.ID); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}

	l.invalidate(ctx, userID)
	return nil
}

// History lists the caller's routes, newest first, optionally filtered by
// status.
func (l *RouteLifecycle) History(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.RouteStatus,
) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "routes.History")(&err)

	if status != nil && !domain.ValidRouteStatus(*status) {
		return nil, fmt.Errorf(
			"route history: unknown status %q: %w", *status, domain.ErrInvalidRequest,
		)
	}

	routes, err := l.Routes.ListRoutes(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("route history: %w", err)
	}
	return routes, nil
}

// ownedRoute loads a route and hides it behind not-found when the caller
// isn't the owner.
func (l *RouteLifecycle) ownedRoute(ctx context.Context, userID, routeID uuid.UUID) (domain.Route, error) {
	route, err := l.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return domain.Route{}, err
	}
	if route.UserID != userID {
		return domain.Route{}, fmt.Errorf(
			"route %s belongs to another user: %w", routeID, domain.ErrNotFound,
		)
	}
	return route, nil
}

func (l *RouteLifecycle) invalidate(ctx context.Context, userID uuid.UUID) {
	if l.Cache == nil {
		return
	}
	if err := l.Cache.Invalidate(ctx, userID); err != nil &&
		!errors.Is(err, context.Canceled) {
		slog.WarnContext(ctx, "active route cache invalidate failed",
			"user_id", userID, "error", err)
	}
}
