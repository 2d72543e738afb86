package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldroute-service/internal/ports"
)

// Client is a thin Mapbox HTTP client shared by the optimizer and geocoder.
// Safe for concurrent use. Requests are not retried: failed Directions calls
// degrade to the greedy fallback instead.
type Client struct {
	session *http.Client
	token   string
	baseURL string
	profile string
}

var (
	_ ports.RouteOptimizer = (*Client)(nil)
	_ ports.Geocoder       = (*Client)(nil)
)

func NewClient(token string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("mapbox token is empty")
	}

	return &Client{
		session: &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: "https://api.mapbox.com",
		profile: "mapbox/driving",
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	q := req.URL.Query()
	q.Set("access_token", c.token)
	req.URL.RawQuery = q.Encode()

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
