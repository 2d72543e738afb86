package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldroute-service/internal/domain"
)

func testStop(routeID uuid.UUID, companyID string, index int, completed bool) domain.RouteStop {
	s := domain.RouteStop{
		ID:        uuid.New(),
		RouteID:   routeID,
		CompanyID: companyID,
		StopIndex: index,
		Name:      "Co " + companyID,
		Lat:       33.4 + float64(index)*0.01,
		Lng:       -112.0,
		Completed: completed,
	}
	if completed {
		at := time.Now().UTC().Add(-time.Hour)
		s.CompletedAt = &at
	}
	return s
}

func planFromIDs(ids []string, order []int) RoutePlan {
	plan := RoutePlan{TotalDistanceMi: f64(9.9), TotalEtaMin: f64(21.0)}
	for pos, idx := range order {
		plan.Stops = append(plan.Stops, domain.RouteStop{
			ID:        uuid.New(),
			CompanyID: ids[idx],
			StopIndex: pos,
			Name:      "Co " + ids[idx],
			Lat:       33.4,
			Lng:       -112.0,
		})
		plan.Geometry = append(plan.Geometry, domain.Coordinates{Lat: 33.4, Lng: -112.0})
	}
	return plan
}

func TestCompleteStopReplansTail(t *testing.T) {
	routeID := uuid.New()
	userID := uuid.New()
	route := domain.Route{
		ID:     routeID,
		UserID: userID,
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "a", 0, true),
			testStop(routeID, "b", 1, false),
			testStop(routeID, "c", 2, false),
			testStop(routeID, "d", 3, false),
		},
		CurrentStopIndex: 1,
	}

	var persisted *domain.Route
	var completedStopID uuid.UUID
	invalidated := 0

	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, id uuid.UUID) (domain.Route, error) {
				require.Equal(t, routeID, id)
				return route, nil
			},
			CompleteStopFn: func(_ context.Context, _, stopID uuid.UUID, _ time.Time) error {
				completedStopID = stopID
				return nil
			},
			ReplaceStopsFn: func(_ context.Context, r *domain.Route) error {
				persisted = r
				return nil
			},
		},
		Planner: &mockPlanner{
			PlanFn: func(_ context.Context, ids []string, origin domain.Origin) (RoutePlan, error) {
				assert.Equal(t, []string{"c", "d"}, ids)
				assert.True(t, origin.Fixed())
				// Reverse the remaining pair.
				return planFromIDs(ids, []int{1, 0}), nil
			},
		},
		Cache: &mockRouteCache{
			InvalidateFn: func(_ context.Context, id uuid.UUID) error {
				assert.Equal(t, userID, id)
				invalidated++
				return nil
			},
		},
	}

	pos := domain.Coordinates{Lat: 33.41, Lng: -112.0}
	res, err := rec.CompleteStop(context.Background(), routeID, "b", &pos)
	require.NoError(t, err)

	assert.True(t, res.Reoptimized)
	assert.False(t, res.RouteCompleted)
	assert.Equal(t, route.Stops[1].ID, completedStopID)
	require.NotNil(t, persisted)

	// Completed stops keep their original relative order in front of the
	// rebuilt tail, and indexes stay contiguous.
	assert.Equal(t, []string{"a", "b", "d", "c"}, stopCompanies(res.Route.Stops))
	for i, s := range res.Route.Stops {
		assert.Equal(t, i, s.StopIndex)
		assert.Equal(t, routeID, s.RouteID)
	}
	assert.Equal(t, 2, res.Route.CurrentStopIndex)
	require.NotNil(t, res.Route.TotalDistanceMi)
	assert.Equal(t, 9.9, *res.Route.TotalDistanceMi)
	assert.Equal(t, 1, invalidated)
}

func TestCompleteStopKeepsOrderWhenRebuildDegrades(t *testing.T) {
	routeID := uuid.New()
	route := domain.Route{
		ID:     routeID,
		UserID: uuid.New(),
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "a", 0, false),
			testStop(routeID, "b", 1, false),
			testStop(routeID, "c", 2, false),
		},
	}

	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return route, nil
			},
			CompleteStopFn: func(_ context.Context, _, _ uuid.UUID, _ time.Time) error { return nil },
			ReplaceStopsFn: func(_ context.Context, _ *domain.Route) error { return nil },
		},
		Planner: &mockPlanner{
			PlanFn: func(_ context.Context, ids []string, _ domain.Origin) (RoutePlan, error) {
				plan := planFromIDs(ids, []int{1, 0})
				plan.Degraded = true
				return plan, nil
			},
		},
	}

	res, err := rec.CompleteStop(context.Background(), routeID, "a", nil)
	require.NoError(t, err)

	assert.False(t, res.Reoptimized)
	assert.Equal(t, []string{"a", "b", "c"}, stopCompanies(res.Route.Stops))
	assert.Equal(t, 1, res.Route.CurrentStopIndex)
}

func TestCompleteStopKeepsOrderWhenPlannerFails(t *testing.T) {
	routeID := uuid.New()
	route := domain.Route{
		ID:     routeID,
		UserID: uuid.New(),
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "a", 0, false),
			testStop(routeID, "b", 1, false),
			testStop(routeID, "c", 2, false),
		},
	}

	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return route, nil
			},
			CompleteStopFn: func(_ context.Context, _, _ uuid.UUID, _ time.Time) error { return nil },
			ReplaceStopsFn: func(_ context.Context, _ *domain.Route) error { return nil },
		},
		Planner: &mockPlanner{
			PlanFn: func(_ context.Context, _ []string, _ domain.Origin) (RoutePlan, error) {
				return RoutePlan{}, errors.New("directory offline")
			},
		},
	}

	res, err := rec.CompleteStop(context.Background(), routeID, "b", nil)
	require.NoError(t, err, "a failed rebuild must not fail the completion")

	assert.False(t, res.Reoptimized)
	assert.Equal(t, []string{"b", "a", "c"}, stopCompanies(res.Route.Stops))
}

func TestCompleteLastStopFinishesRoute(t *testing.T) {
	routeID := uuid.New()
	route := domain.Route{
		ID:     routeID,
		UserID: uuid.New(),
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "a", 0, true),
			testStop(routeID, "b", 1, false),
		},
		CurrentStopIndex: 1,
	}

	planCalls := 0
	var statusSet domain.RouteStatus
	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return route, nil
			},
			CompleteStopFn: func(_ context.Context, _, _ uuid.UUID, _ time.Time) error { return nil },
			UpdateRouteStatusFn: func(_ context.Context, _ uuid.UUID, status domain.RouteStatus, completedAt *time.Time) error {
				statusSet = status
				require.NotNil(t, completedAt)
				return nil
			},
		},
		Planner: &mockPlanner{
			PlanFn: func(_ context.Context, _ []string, _ domain.Origin) (RoutePlan, error) {
				planCalls++
				return RoutePlan{}, nil
			},
		},
	}

	res, err := rec.CompleteStop(context.Background(), routeID, "b", nil)
	require.NoError(t, err)

	assert.True(t, res.RouteCompleted)
	assert.Equal(t, domain.RouteCompleted, statusSet)
	assert.Equal(t, domain.RouteCompleted, res.Route.Status)
	require.NotNil(t, res.Route.CompletedAt)
	assert.Equal(t, len(res.Route.Stops), res.Route.CurrentStopIndex)
	assert.Zero(t, planCalls, "finishing a route must not trigger a rebuild")
}

func TestCompleteStopUnknownCompany(t *testing.T) {
	routeID := uuid.New()
	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return domain.Route{
					ID:    routeID,
					Stops: []domain.RouteStop{testStop(routeID, "a", 0, false)},
				}, nil
			},
		},
	}

	_, err := rec.CompleteStop(context.Background(), routeID, "zz", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddStopAppendsWhenRebuildFails(t *testing.T) {
	routeID := uuid.New()
	route := domain.Route{
		ID:     routeID,
		UserID: uuid.New(),
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "a", 0, true),
			testStop(routeID, "b", 1, false),
			testStop(routeID, "c", 2, false),
		},
		CurrentStopIndex: 1,
	}

	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return route, nil
			},
			ReplaceStopsFn: func(_ context.Context, _ *domain.Route) error { return nil },
		},
		Directory: &mockDirectory{
			GetCompanyFn: func(_ context.Context, id string) (domain.Company, error) {
				require.Equal(t, "d", id)
				return testCompany("d", 33.47, -112.03), nil
			},
		},
		Planner: &mockPlanner{
			PlanFn: func(_ context.Context, ids []string, _ domain.Origin) (RoutePlan, error) {
				assert.Equal(t, []string{"b", "c", "d"}, ids)
				return RoutePlan{}, errors.New("provider unavailable")
			},
		},
	}

	res, err := rec.AddStop(context.Background(), routeID, "d", nil)
	require.NoError(t, err, "the new stop must survive a failed rebuild")

	assert.False(t, res.Reoptimized)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stopCompanies(res.Route.Stops))
	for i, s := range res.Route.Stops {
		assert.Equal(t, i, s.StopIndex)
	}
}

func TestAddStopRejectsDuplicateUncompleted(t *testing.T) {
	routeID := uuid.New()
	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return domain.Route{
					ID:    routeID,
					Stops: []domain.RouteStop{testStop(routeID, "b", 0, false)},
				}, nil
			},
		},
	}

	_, err := rec.AddStop(context.Background(), routeID, "b", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAddStopRequiresCoordinates(t *testing.T) {
	routeID := uuid.New()
	rec := &Reconciler{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return domain.Route{
					ID:    routeID,
					Stops: []domain.RouteStop{testStop(routeID, "a", 0, false)},
				}, nil
			},
		},
		Directory: &mockDirectory{
			GetCompanyFn: func(_ context.Context, _ string) (domain.Company, error) {
				return domain.Company{ID: "d", Name: "Co d"}, nil
			},
		},
	}

	_, err := rec.AddStop(context.Background(), routeID, "d", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
