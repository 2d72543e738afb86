package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// TailPlanner is the optimize-only slice of RouteBuilder the reconciler needs.
type TailPlanner interface {
	Plan(ctx context.Context, companyIDs []string, origin domain.Origin) (RoutePlan, error)
}

// Reconciler merges a route's completed stops with a freshly optimized
// remaining tail after a check-in or a mid-route stop addition. Completed
// stops are never reordered; rebuild failures keep the pre-rebuild tail
// order rather than losing stops.
type Reconciler struct {
	Routes    ports.RouteRepository
	Directory ports.CompanyDirectory
	Planner   TailPlanner
	Cache     ports.ActiveRouteCache
}

// ReconcileResult reports what a reconciliation did to the route.
type ReconcileResult struct {
	Route          domain.Route
	Reoptimized    bool
	RouteCompleted bool
}

// CompleteStop marks the first uncompleted stop for companyID as done, then
// re-plans the remaining tail with the caller's position as origin (any
// start when position is unknown). Completing the final stop flips the route
// to completed with no rebuild.
func (r *Reconciler) CompleteStop(
	ctx context.Context,
	routeID uuid.UUID,
	companyID string,
	position *domain.Coordinates,
) (_ ReconcileResult, err error) {
	defer obs.Time(ctx, "routes.CompleteStop")(&err)

	route, err := r.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("complete stop: %w", err)
	}

	target := -1
	for i, s := range route.Stops {
		if !s.Completed && s.CompanyID == companyID {
			target = i
			break
		}
	}
	if target == -1 {
		return ReconcileResult{}, fmt.Errorf(
			"complete stop: no uncompleted stop for company %q: %w",
			companyID, domain.ErrNotFound,
		)
	}

	now := time.Now().UTC()
	route.Stops[target].Completed = true
	route.Stops[target].CompletedAt = &now
	if err := r.Routes.CompleteStop(ctx, route.ID, route.Stops[target].ID, now); err != nil {
		return ReconcileResult{}, fmt.Errorf("complete stop: persist flag: %w", err)
	}

	completed, remaining := route.Partition()
	if len(remaining) == 0 {
		// Itinerary finished: flip the route itself, nothing left to rebuild.
		route.Status = domain.RouteCompleted
		route.CompletedAt = &now
		route.CurrentStopIndex = len(route.Stops)
		if err := r.Routes.UpdateRouteStatus(ctx, route.ID, domain.RouteCompleted, &now); err != nil {
			return ReconcileResult{}, fmt.Errorf("complete stop: finish route: %w", err)
		}
		r.invalidate(ctx, route.UserID)
		return ReconcileResult{Route: route, RouteCompleted: true}, nil
	}

	reoptimized := r.replanTail(ctx, &route, completed, remaining, position)

	if err := r.Routes.ReplaceStops(ctx, &route); err != nil {
		return ReconcileResult{}, fmt.Errorf("complete stop: persist merged stops: %w", err)
	}
	r.invalidate(ctx, route.UserID)

	return ReconcileResult{Route: route, Reoptimized: reoptimized}, nil
}

// AddStop inserts a company into a route mid-journey and re-plans the
// remaining tail around it. When the rebuild cannot run, the new stop is
// appended after the pre-rebuild tail instead of being dropped.
func (r *Reconciler) AddStop(
	ctx context.Context,
	routeID uuid.UUID,
	companyID string,
	position *domain.Coordinates,
) (_ ReconcileResult, err error) {
	defer obs.Time(ctx, "routes.AddStop")(&err)

	route, err := r.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("add stop: %w", err)
	}

	for _, s := range route.Stops {
		if !s.Completed && s.CompanyID == companyID {
			return ReconcileResult{}, fmt.Errorf(
				"add stop: company %q already has an uncompleted stop: %w",
				companyID, domain.ErrInvalidRequest,
			)
		}
	}

	company, err := r.Directory.GetCompany(ctx, companyID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("add stop: %w", err)
	}
	if !company.HasCoordinates() {
		return ReconcileResult{}, fmt.Errorf(
			"add stop: company %q has no coordinates: %w",
			companyID, domain.ErrInvalidRequest,
		)
	}

	completed, remaining := route.Partition()
	remaining = append(remaining, domain.RouteStop{
		ID:         uuid.New(),
		RouteID:    route.ID,
		CompanyID:  company.ID,
		Name:       company.Name,
		Lat:        *company.Lat,
		Lng:        *company.Lng,
		Street:     company.Street,
		City:       company.City,
		State:      company.State,
		PostalCode: company.PostalCode,
	})

	reoptimized := r.replanTail(ctx, &route, completed, remaining, position)

	if err := r.Routes.ReplaceStops(ctx, &route); err != nil {
		return ReconcileResult{}, fmt.Errorf("add stop: persist merged stops: %w", err)
	}
	r.invalidate(ctx, route.UserID)

	return ReconcileResult{Route: route, Reoptimized: reoptimized}, nil
}

// replanTail re-optimizes the uncompleted tail and splices it after the
// completed prefix, reindexing the merged sequence contiguously. Any rebuild
// failure (planner error, degraded provider, or a company vanishing
// mid-route) keeps the pre-rebuild tail order.
func (r *Reconciler) replanTail(
	ctx context.Context,
	route *domain.Route,
	completed, remaining []domain.RouteStop,
	position *domain.Coordinates,
) bool {
	origin := domain.AnyStart()
	if position != nil {
		origin = domain.FixedOrigin(position.Lat, position.Lng)
	}

	ids := make([]string, 0, len(remaining))
	for _, s := range remaining {
		ids = append(ids, s.CompanyID)
	}

	tail := remaining
	reoptimized := false

	plan, err := r.Planner.Plan(ctx, ids, origin)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "route rebuild failed, keeping current order",
			"route_id", route.ID, "error", fmt.Errorf("%v: %w", err, domain.ErrRebuildFailed))
	case plan.Degraded:
		slog.WarnContext(ctx, "route rebuild degraded, keeping current order",
			"route_id", route.ID)
	case len(plan.Stops) != len(remaining):
		slog.WarnContext(ctx, "route rebuild resolved fewer stops, keeping current order",
			"route_id", route.ID, "want", len(remaining), "got", len(plan.Stops))
	default:
		tail = plan.Stops
		reoptimized = true
		route.TotalDistanceMi = plan.TotalDistanceMi
		route.TotalEtaMin = plan.TotalEtaMin
		if g, gerr := encodeGeometry(plan.Geometry); gerr == nil && g != nil {
			route.GeometryGeoJSON = g
		}
	}

	merged := make([]domain.RouteStop, 0, len(completed)+len(tail))
	merged = append(merged, completed...)
	merged = append(merged, tail...)
	domain.ReindexStops(merged)
	for i := range merged {
		merged[i].RouteID = route.ID
	}

	route.Stops = merged
	route.CurrentStopIndex = route.FirstUncompletedIndex()
	return reoptimized
}

func (r *Reconciler) invalidate(ctx context.Context, userID uuid.UUID) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Invalidate(ctx, userID); err != nil {
		slog.WarnContext(ctx, "active route cache invalidate failed",
			"user_id", userID, "error", err)
	}
}
