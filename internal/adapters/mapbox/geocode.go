package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Center []float64 `json:"center"`
	} `json:"features"`
}

// Geocode resolves a US address to coordinates (best match only).
func (c *Client) Geocode(ctx context.Context, address string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "mapbox.Geocode")(&err)

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(address))

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode request: %w", err)
	}

	q := req.URL.Query()
	q.Set("limit", "1")
	q.Set("country", "US")
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	center := decoded.Features[0].Center
	if len(center) != 2 {
		return domain.Coordinates{}, false, fmt.Errorf("invalid coordinate format for %q", address)
	}

	return domain.Coordinates{Lng: center[0], Lat: center[1]}, true, nil
}
