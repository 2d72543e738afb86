package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// Client talks to the HubSpot CRM v3 API. An empty token disables the
// integration; callers should check Enabled before wiring it in.
type Client struct {
	session *http.Client
	token   string
	baseURL string
}

var (
	_ ports.CompanySource = (*Client)(nil)
	_ ports.VisitLogger   = (*Client)(nil)
)

func NewClient(token string) *Client {
	return &Client{
		session: &http.Client{Timeout: 15 * time.Second},
		token:   strings.TrimSpace(token),
		baseURL: "https://api.hubapi.com",
	}
}

func (c *Client) Enabled() bool { return c.token != "" }

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

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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

type companiesResponse struct {
	Results []struct {
		ID         string            `json:"id"`
		Properties map[string]string `json:"properties"`
	} `json:"results"`
	Paging struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// FetchCompanies pages through every CRM company, 100 per page.
// Coordinates are not a CRM property; the sync pipeline geocodes them later.
func (c *Client) FetchCompanies(ctx context.Context) (_ []domain.Company, err error) {
	defer obs.Time(ctx, "hubspot.FetchCompanies")(&err)

	if !c.Enabled() {
		return nil, errors.New("hubspot token is empty")
	}

	endpoint := c.baseURL + "/crm/v3/objects/companies"

	var out []domain.Company
	after := ""

	for {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch companies: %w", err)
		}

		q := req.URL.Query()
		q.Set("limit", "100")
		q.Set("properties", "name,address,city,state,zip,country,hubspot_owner_id")
		if after != "" {
			q.Set("after", after)
		}
		req.URL.RawQuery = q.Encode()

		resp, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch companies page: %w", err)
		}

		var decoded companiesResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode companies page: %w", decodeErr)
		}

		for _, r := range decoded.Results {
			name := r.Properties["name"]
			if strings.TrimSpace(name) == "" {
				name = "Unnamed company"
			}

			out = append(out, domain.Company{
				ID:         r.ID,
				Name:       name,
				Street:     strPtr(r.Properties["address"]),
				City:       strPtr(r.Properties["city"]),
				State:      strPtr(r.Properties["state"]),
				PostalCode: strPtr(r.Properties["zip"]),
				Country:    strPtr(r.Properties["country"]),
				OwnerID:    strPtr(r.Properties["hubspot_owner_id"]),
			})
		}

		after = decoded.Paging.Next.After
		if after == "" {
			return out, nil
		}
	}
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
