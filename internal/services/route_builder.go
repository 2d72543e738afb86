package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// RouteBuilder turns a set of company ids into a persisted, ordered route.
// All resilience lives in the optimizer's fallback; this layer never retries.
type RouteBuilder struct {
	Directory ports.CompanyDirectory
	Optimizer ports.RouteOptimizer
	Routes    ports.RouteRepository
}

// RoutePlan is an optimized but not yet persisted stop sequence.
type RoutePlan struct {
	Stops           []domain.RouteStop
	TotalDistanceMi *float64
	TotalEtaMin     *float64
	Geometry        []domain.Coordinates
	Degraded        bool
}

// BuiltRoute is the build result handed to the presentation layer.
type BuiltRoute struct {
	Route    domain.Route
	NavURL   string
	Degraded bool
}

// Build resolves companies, optimizes the visiting order, and persists the
// route (status planning) with its contiguous stop records in one logical
// operation. Companies without coordinates are dropped silently; fewer than
// two resolvable stops reject the whole request.
func (b *RouteBuilder) Build(
	ctx context.Context,
	userID uuid.UUID,
	companyIDs []string,
	origin domain.Origin,
) (_ BuiltRoute, err error) {
	defer obs.Time(ctx, "routes.Build")(&err)

	plan, err := b.Plan(ctx, companyIDs, origin)
	if err != nil {
		return BuiltRoute{}, fmt.Errorf("build route: %w", err)
	}
	if len(plan.Stops) < 2 {
		return BuiltRoute{}, fmt.Errorf(
			"build route: %d resolvable stops: %w",
			len(plan.Stops), domain.ErrInvalidRequest,
		)
	}

	geometry, err := encodeGeometry(plan.Geometry)
	if err != nil {
		return BuiltRoute{}, fmt.Errorf("build route: %w", err)
	}

	route := domain.Route{
		ID:              uuid.New(),
		UserID:          userID,
		Stops:           plan.Stops,
		TotalDistanceMi: plan.TotalDistanceMi,
		TotalEtaMin:     plan.TotalEtaMin,
		Status:          domain.RoutePlanning,
		GeometryGeoJSON: geometry,
		CreatedAt:       time.Now().UTC(),
	}
	for i := range route.Stops {
		route.Stops[i].RouteID = route.ID
	}

	if err := b.Routes.CreateRoute(ctx, &route); err != nil {
		return BuiltRoute{}, fmt.Errorf("build route: persist: %w", err)
	}

	return BuiltRoute{
		Route:    route,
		NavURL:   NavURL(route.Stops),
		Degraded: plan.Degraded,
	}, nil
}

// Plan optimizes company ids into an ordered stop sequence without touching
// the routes table. The reconciler uses it to re-plan a route's tail against
// the same optimizer the builder uses.
func (b *RouteBuilder) Plan(
	ctx context.Context,
	companyIDs []string,
	origin domain.Origin,
) (RoutePlan, error) {
	companies, err := b.Directory.ResolveCompanies(ctx, companyIDs)
	if err != nil {
		return RoutePlan{}, fmt.Errorf("resolve companies: %w", err)
	}

	resolved := make([]domain.Company, 0, len(companies))
	coords := make([]domain.Coordinates, 0, len(companies))
	for _, c := range companies {
		if !c.HasCoordinates() {
			continue
		}
		resolved = append(resolved, c)
		coords = append(coords, c.Coordinates())
	}
	if len(resolved) == 0 {
		return RoutePlan{}, nil
	}

	opt, err := b.Optimizer.Optimize(ctx, coords, origin)
	if err != nil {
		return RoutePlan{}, fmt.Errorf("optimize: %w", err)
	}

	stops := make([]domain.RouteStop, 0, len(opt.Order))
	for pos, idx := range opt.Order {
		c := resolved[idx]
		stop := domain.RouteStop{
			ID:         uuid.New(),
			CompanyID:  c.ID,
			StopIndex:  pos,
			Name:       c.Name,
			Lat:        *c.Lat,
			Lng:        *c.Lng,
			Street:     c.Street,
			City:       c.City,
			State:      c.State,
			PostalCode: c.PostalCode,
		}
		if pos < len(opt.LegDistanceMi) {
			stop.DistanceFromPrevMi = opt.LegDistanceMi[pos]
		}
		if pos < len(opt.LegEtaMin) {
			stop.EtaFromPrevMin = opt.LegEtaMin[pos]
		}
		stops = append(stops, stop)
	}

	return RoutePlan{
		Stops:           stops,
		TotalDistanceMi: opt.TotalDistanceMi,
		TotalEtaMin:     opt.TotalEtaMin,
		Geometry:        opt.Geometry,
		Degraded:        opt.Degraded,
	}, nil
}

// NavURL builds the handoff link that opens the itinerary in Google Maps.
// Presentation detail, but part of every build result.
func NavURL(stops []domain.RouteStop) string {
	if len(stops) == 0 {
		return ""
	}

	parts := make([]string, 0, len(stops))
	for _, s := range stops {
		parts = append(parts, fmt.Sprintf("%f,%f", s.Lat, s.Lng))
	}

	return "https://www.google.com/maps/dir/?api=1&waypoints=" +
		url.QueryEscape(strings.Join(parts, "|")) +
		"&travelmode=driving"
}

// encodeGeometry renders the route line as GeoJSON for the jsonb column.
// Degraded plans carry the raw stop coordinates, which still draw a usable
// straight-line preview.
func encodeGeometry(coords []domain.Coordinates) (*string, error) {
	if len(coords) < 2 {
		return nil, nil
	}

	pts := make([]geom.Coord, 0, len(coords))
	for _, c := range coords {
		pts = append(pts, geom.Coord{c.Lng, c.Lat})
	}

	line := geom.NewLineString(geom.XY)
	if _, err := line.SetCoords(pts); err != nil {
		return nil, fmt.Errorf("set geometry coords: %w", err)
	}

	b, err := geojson.Marshal(line)
	if err != nil {
		return nil, fmt.Errorf("marshal geometry: %w", err)
	}

	s := string(b)
	return &s, nil
}
