package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"fieldroute-service/internal/domain"
)

type directionsLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

type directionsResult struct {
	Legs     []directionsLeg
	Geometry []domain.Coordinates
}

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry json.RawMessage `json:"geometry"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// directions fetches full route geometry and per-leg metrics for an ordered
// coordinate sequence (Directions API, GeoJSON geometry, no step detail).
func (c *Client) directions(ctx context.Context, coords []domain.Coordinates) (directionsResult, error) {
	parts := make([]string, 0, len(coords))
	for _, p := range coords {
		parts = append(parts, fmt.Sprintf("%f,%f", p.Lng, p.Lat))
	}
	endpoint := fmt.Sprintf("%s/directions/v5/%s/%s", c.baseURL, c.profile, strings.Join(parts, ";"))

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return directionsResult{}, fmt.Errorf("directions request: %w", err)
	}

	q := req.URL.Query()
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("steps", "false")
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return directionsResult{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return directionsResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return directionsResult{}, fmt.Errorf(
			"directions returned code %q with %d routes",
			decoded.Code, len(decoded.Routes),
		)
	}

	route := decoded.Routes[0]

	var g geom.T
	if err := geojson.Unmarshal(route.Geometry, &g); err != nil {
		return directionsResult{}, fmt.Errorf("decode route geometry: %w", err)
	}
	line, ok := g.(*geom.LineString)
	if !ok {
		return directionsResult{}, fmt.Errorf("route geometry is %T, want LineString", g)
	}

	geometry := make([]domain.Coordinates, 0, line.NumCoords())
	for _, coord := range line.Coords() {
		geometry = append(geometry, domain.Coordinates{Lng: coord[0], Lat: coord[1]})
	}

	legs := make([]directionsLeg, 0, len(route.Legs))
	for _, l := range route.Legs {
		legs = append(legs, directionsLeg{DistanceMeters: l.Distance, DurationSeconds: l.Duration})
	}

	return directionsResult{Legs: legs, Geometry: geometry}, nil
}
