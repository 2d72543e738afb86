package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// Association type id for note -> company in the HubSpot defined set.
const noteToCompanyAssociation = 190

type objectResponse struct {
	ID string `json:"id"`
}

// LogVisit records a field visit in the CRM and returns its external id.
// Portals without the custom field-visit object installed answer 404; a
// plain engagement note against the company is the fallback there.
func (c *Client) LogVisit(ctx context.Context, v ports.Visit) (_ string, err error) {
	defer obs.Time(ctx, "hubspot.LogVisit")(&err)

	if !c.Enabled() {
		return "", errors.New("hubspot token is empty")
	}

	id, err := c.createFieldVisit(ctx, v)
	if err == nil {
		return id, nil
	}

	var he *httpStatusError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		return c.createNote(ctx, v)
	}

	return "", err
}

func (c *Client) createFieldVisit(ctx context.Context, v ports.Visit) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"properties": map[string]any{
			"visit_notes":     v.Note,
			"visit_latitude":  fmt.Sprintf("%.6f", v.Lat),
			"visit_longitude": fmt.Sprintf("%.6f", v.Lng),
			"visit_timestamp": v.At.UTC().Format("2006-01-02T15:04:05.000Z"),
			"company_id":      v.CompanyID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal field visit: %w", err)
	}

	endpoint := c.baseURL + "/crm/v3/objects/field_visits"
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create field visit: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("create field visit: %w", err)
	}
	defer resp.Body.Close()

	var decoded objectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode field visit response: %w", err)
	}

	return decoded.ID, nil
}

func (c *Client) createNote(ctx context.Context, v ports.Visit) (string, error) {
	body := fmt.Sprintf(
		"Field visit check-in\nLocation: %.6f, %.6f\n\n%s",
		v.Lat, v.Lng, v.Note,
	)

	payload, err := json.Marshal(map[string]any{
		"properties": map[string]any{
			"hs_note_body": body,
			"hs_timestamp": v.At.UTC().Format("2006-01-02T15:04:05.000Z"),
		},
		"associations": []map[string]any{
			{
				"to": map[string]string{"id": v.CompanyID},
				"types": []map[string]any{
					{
						"associationCategory": "HUBSPOT_DEFINED",
						"associationTypeId":   noteToCompanyAssociation,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal visit note: %w", err)
	}

	endpoint := c.baseURL + "/crm/v3/objects/notes"
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create visit note: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("create visit note: %w", err)
	}
	defer resp.Body.Close()

	var decoded objectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode visit note response: %w", err)
	}

	return decoded.ID, nil
}
