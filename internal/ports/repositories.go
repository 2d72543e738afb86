package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// Port: boundary for company rows mirrored from the CRM.
type CompanyDirectory interface {
	// GetCompany retrieves one company by id (domain.ErrNotFound when absent).
	GetCompany(ctx context.Context, id string) (domain.Company, error)
	// ResolveCompanies returns the companies found for ids, in input order.
	// Unknown ids are dropped, not reported.
	ResolveCompanies(ctx context.Context, ids []string) ([]domain.Company, error)
	// ListCompanies returns all non-deleted companies.
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	// UpsertCompanies inserts or refreshes mirrored company rows.
	UpsertCompanies(ctx context.Context, companies []domain.Company) error
	// SoftDeleteMissing flags companies absent from the latest CRM snapshot.
	SoftDeleteMissing(ctx context.Context, activeIDs []string) error
}

// Port: durable store for routes and their ordered stop records.
type RouteRepository interface {
	// CreateRoute persists a route and its stops in one transaction.
	CreateRoute(ctx context.Context, route *domain.Route) error
	GetRoute(ctx context.Context, id uuid.UUID) (domain.Route, error)
	// GetActiveRoute returns the user's active route (domain.ErrNotFound when none).
	GetActiveRoute(ctx context.Context, userID uuid.UUID) (domain.Route, error)
	ListRoutes(ctx context.Context, userID uuid.UUID, status *domain.RouteStatus) ([]domain.Route, error)
	UpdateRouteStatus(ctx context.Context, id uuid.UUID, status domain.RouteStatus, completedAt *time.Time) error
	// ReplaceStops rewrites the route's stop set and totals wholesale,
	// in one transaction. The stop ordering in route.Stops is authoritative.
	ReplaceStops(ctx context.Context, route *domain.Route) error
	// CompleteStop flips the completion flag on a single stop.
	CompleteStop(ctx context.Context, routeID, stopID uuid.UUID, at time.Time) error
	DeleteRoute(ctx context.Context, id uuid.UUID) error
}

// Port: durable store for recorded field visits.
type CheckInRepository interface {
	CreateCheckIn(ctx context.Context, checkIn *domain.CheckIn) error
	GetCheckIn(ctx context.Context, id uuid.UUID) (domain.CheckIn, error)
	UpdateNote(ctx context.Context, id uuid.UUID, note string) (domain.CheckIn, error)
	// SetCRMNoteID records the external CRM id once the async write lands.
	SetCRMNoteID(ctx context.Context, id uuid.UUID, crmNoteID string) error
	// ListCheckInsBetween returns a user's check-ins in [from, to), oldest first.
	ListCheckInsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.CheckIn, error)
}

// Port: account storage.
type UserRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// Port: audit trail for company sync runs.
type SyncLogRepository interface {
	StartSync(ctx context.Context) (uuid.UUID, error)
	FinishSync(ctx context.Context, id uuid.UUID, synced int, syncErr error) error
	LatestSync(ctx context.Context) (domain.SyncLog, error)
}

// Port: persistent address -> coordinates cache for the sync pipeline.
type GeocodeCache interface {
	Lookup(ctx context.Context, address string) (domain.Coordinates, bool, error)
	Store(ctx context.Context, address string, coords domain.Coordinates) error
}
