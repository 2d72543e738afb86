package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// A visit as recorded against the CRM.
type Visit struct {
	CompanyID string
	UserID    uuid.UUID
	OwnerID   *string
	Lat       float64
	Lng       float64
	Note      string
	At        time.Time
}

// Port: fire-and-forget CRM visit logging. Callers never block a check-in on
// this and tolerate failure.
type VisitLogger interface {
	// LogVisit records the visit and returns the external record id.
	LogVisit(ctx context.Context, v Visit) (string, error)
}

// Port: source of company records to mirror locally.
type CompanySource interface {
	FetchCompanies(ctx context.Context) ([]domain.Company, error)
}
