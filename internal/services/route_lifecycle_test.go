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

func TestActiveRouteReadsThroughCache(t *testing.T) {
	userID := uuid.New()
	dbRoute := domain.Route{ID: uuid.New(), UserID: userID, Status: domain.RouteActive}

	dbReads := 0
	var cachedRoute *domain.Route

	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			GetActiveRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				dbReads++
				return dbRoute, nil
			},
		},
		Cache: &mockRouteCache{
			GetFn: func(_ context.Context, _ uuid.UUID) (domain.Route, bool, error) {
				if cachedRoute == nil {
					return domain.Route{}, false, nil
				}
				return *cachedRoute, true, nil
			},
			PutFn: func(_ context.Context, _ uuid.UUID, route domain.Route) error {
				cachedRoute = &route
				return nil
			},
		},
	}

	got, err := l.ActiveRoute(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, dbRoute.ID, got.ID)
	assert.Equal(t, 1, dbReads)

	got, err = l.ActiveRoute(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, dbRoute.ID, got.ID)
	assert.Equal(t, 1, dbReads, "second read must come from the cache")
}

func TestActiveRouteSurvivesCacheErrors(t *testing.T) {
	userID := uuid.New()
	dbRoute := domain.Route{ID: uuid.New(), UserID: userID, Status: domain.RouteActive}

	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			GetActiveRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return dbRoute, nil
			},
		},
		Cache: &mockRouteCache{
			GetFn: func(_ context.Context, _ uuid.UUID) (domain.Route, bool, error) {
				return domain.Route{}, false, errors.New("redis down")
			},
			PutFn: func(_ context.Context, _ uuid.UUID, _ domain.Route) error {
				return errors.New("redis down")
			},
		},
	}

	got, err := l.ActiveRoute(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, dbRoute.ID, got.ID)
}

func TestSetStatusActivatesAndCompletes(t *testing.T) {
	userID := uuid.New()
	routeID := uuid.New()
	invalidated := 0

	var gotStatus domain.RouteStatus
	var gotCompletedAt *time.Time

	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, id uuid.UUID) (domain.Route, error) {
				return domain.Route{ID: id, UserID: userID, Status: domain.RoutePlanning}, nil
			},
			UpdateRouteStatusFn: func(_ context.Context, _ uuid.UUID, status domain.RouteStatus, completedAt *time.Time) error {
				gotStatus = status
				gotCompletedAt = completedAt
				return nil
			},
		},
		Cache: &mockRouteCache{
			InvalidateFn: func(_ context.Context, _ uuid.UUID) error {
				invalidated++
				return nil
			},
		},
	}

	route, err := l.SetStatus(context.Background(), userID, routeID, domain.RouteActive)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteActive, gotStatus)
	assert.Nil(t, gotCompletedAt)
	assert.Equal(t, domain.RouteActive, route.Status)

	route, err = l.SetStatus(context.Background(), userID, routeID, domain.RouteCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteCompleted, gotStatus)
	require.NotNil(t, gotCompletedAt)
	require.NotNil(t, route.CompletedAt)
	assert.Equal(t, 2, invalidated)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	l := &RouteLifecycle{}
	_, err := l.SetStatus(context.Background(), uuid.New(), uuid.New(), domain.RouteStatus("paused"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSetStatusHidesOtherUsersRoutes(t *testing.T) {
	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, id uuid.UUID) (domain.Route, error) {
				return domain.Route{ID: id, UserID: uuid.New()}, nil
			},
		},
	}

	_, err := l.SetStatus(context.Background(), uuid.New(), uuid.New(), domain.RouteActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRoute(t *testing.T) {
	userID := uuid.New()
	routeID := uuid.New()
	deleted := false

	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			GetRouteFn: func(_ context.Context, id uuid.UUID) (domain.Route, error) {
				return domain.Route{ID: id, UserID: userID}, nil
			},
			DeleteRouteFn: func(_ context.Context, id uuid.UUID) error {
				assert.Equal(t, routeID, id)
				deleted = true
				return nil
			},
		},
	}

	require.NoError(t, l.Delete(context.Background(), userID, routeID))
	assert.True(t, deleted)
}

func TestHistoryValidatesStatusFilter(t *testing.T) {
	userID := uuid.New()
	completed := domain.RouteCompleted

	l := &RouteLifecycle{
		Routes: &mockRouteRepo{
			ListRoutesFn: func(_ context.Context, id uuid.UUID, status *domain.RouteStatus) ([]domain.Route, error) {
				assert.Equal(t, userID, id)
				require.NotNil(t, status)
				assert.Equal(t, completed, *status)
				return []domain.Route{{ID: uuid.New(), UserID: id, Status: completed}}, nil
			},
		},
	}

	routes, err := l.History(context.Background(), userID, &completed)
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	bad := domain.RouteStatus("archived")
	_, err = l.History(context.Background(), userID, &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
