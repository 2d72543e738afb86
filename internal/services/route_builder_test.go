package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldroute-service/internal/domain"
)

func f64(v float64) *float64 { return &v }

func testCompany(id string, lat, lng float64) domain.Company {
	city := "Phoenix"
	return domain.Company{ID: id, Name: "Co " + id, City: &city, Lat: f64(lat), Lng: f64(lng)}
}

func TestBuildPersistsOrderedStops(t *testing.T) {
	companies := []domain.Company{
		testCompany("a", 33.40, -112.00),
		testCompany("b", 33.50, -112.10),
		testCompany("c", 33.45, -112.05),
	}

	var created *domain.Route
	builder := &RouteBuilder{
		Directory: &mockDirectory{
			ResolveCompaniesFn: func(_ context.Context, ids []string) ([]domain.Company, error) {
				assert.Equal(t, []string{"a", "b", "c"}, ids)
				return companies, nil
			},
		},
		Optimizer: &mockOptimizer{
			OptimizeFn: func(_ context.Context, coords []domain.Coordinates, origin domain.Origin) (domain.OptimizedRoute, error) {
				require.Len(t, coords, 3)
				assert.True(t, origin.Fixed())
				return domain.OptimizedRoute{
					Order:           []int{2, 0, 1},
					TotalDistanceMi: f64(14.2),
					TotalEtaMin:     f64(31.0),
					LegDistanceMi:   []*float64{f64(4.0), f64(5.1), f64(5.1)},
					LegEtaMin:       []*float64{f64(9.0), f64(11.0), f64(11.0)},
					Geometry:        coords,
				}, nil
			},
		},
		Routes: &mockRouteRepo{
			CreateRouteFn: func(_ context.Context, route *domain.Route) error {
				created = route
				return nil
			},
		},
	}

	userID := uuid.New()
	built, err := builder.Build(context.Background(), userID, []string{"a", "b", "c"}, domain.FixedOrigin(33.42, -112.02))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, domain.RoutePlanning, created.Status)
	require.Len(t, created.Stops, 3)
	assert.Equal(t, []string{"c", "a", "b"}, stopCompanies(created.Stops))
	for i, s := range created.Stops {
		assert.Equal(t, i, s.StopIndex)
		assert.Equal(t, created.ID, s.RouteID)
		require.NotNil(t, s.DistanceFromPrevMi, "stop %d", i)
	}
	require.NotNil(t, created.GeometryGeoJSON)
	assert.Contains(t, *created.GeometryGeoJSON, `"LineString"`)

	assert.False(t, built.Degraded)
	assert.True(t, strings.HasPrefix(built.NavURL, "https://www.google.com/maps/dir/?api=1&waypoints="))
	assert.Contains(t, built.NavURL, "travelmode=driving")
}

func TestBuildRejectsFewerThanTwoResolvableStops(t *testing.T) {
	// Second company has no coordinates and must be dropped, leaving one stop.
	builder := &RouteBuilder{
		Directory: &mockDirectory{
			ResolveCompaniesFn: func(_ context.Context, ids []string) ([]domain.Company, error) {
				return []domain.Company{
					testCompany("a", 33.4, -112.0),
					{ID: "b", Name: "Co b"},
				}, nil
			},
		},
		Optimizer: &mockOptimizer{
			OptimizeFn: func(_ context.Context, coords []domain.Coordinates, _ domain.Origin) (domain.OptimizedRoute, error) {
				require.Len(t, coords, 1)
				return domain.OptimizedRoute{Order: []int{0}, Geometry: coords}, nil
			},
		},
	}

	_, err := builder.Build(context.Background(), uuid.New(), []string{"a", "b"}, domain.AnyStart())
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestBuildSurfacesDegradedPlans(t *testing.T) {
	builder := &RouteBuilder{
		Directory: &mockDirectory{
			ResolveCompaniesFn: func(_ context.Context, ids []string) ([]domain.Company, error) {
				return []domain.Company{
					testCompany("a", 33.40, -112.00),
					testCompany("b", 33.50, -112.10),
				}, nil
			},
		},
		Optimizer: &mockOptimizer{
			OptimizeFn: func(_ context.Context, coords []domain.Coordinates, _ domain.Origin) (domain.OptimizedRoute, error) {
				return domain.OptimizedRoute{
					Order:         []int{0, 1},
					LegDistanceMi: []*float64{nil, nil},
					LegEtaMin:     []*float64{nil, nil},
					Geometry:      coords,
					Degraded:      true,
				}, nil
			},
		},
		Routes: &mockRouteRepo{
			CreateRouteFn: func(_ context.Context, _ *domain.Route) error { return nil },
		},
	}

	built, err := builder.Build(context.Background(), uuid.New(), []string{"a", "b"}, domain.AnyStart())
	require.NoError(t, err)
	assert.True(t, built.Degraded)
	assert.Nil(t, built.Route.TotalDistanceMi)
	for _, s := range built.Route.Stops {
		assert.Nil(t, s.DistanceFromPrevMi)
	}
}

func stopCompanies(stops []domain.RouteStop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.CompanyID)
	}
	return out
}
