package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

var errNotStubbed = errors.New("not stubbed")

type mockDirectory struct {
	GetCompanyFn        func(ctx context.Context, id string) (domain.Company, error)
	ResolveCompaniesFn  func(ctx context.Context, ids []string) ([]domain.Company, error)
	ListCompaniesFn     func(ctx context.Context) ([]domain.Company, error)
	UpsertCompaniesFn   func(ctx context.Context, companies []domain.Company) error
	SoftDeleteMissingFn func(ctx context.Context, activeIDs []string) error
}

var _ ports.CompanyDirectory = (*mockDirectory)(nil)

func (m *mockDirectory) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	if m.GetCompanyFn == nil {
		return domain.Company{}, errNotStubbed
	}
	return m.GetCompanyFn(ctx, id)
}

func (m *mockDirectory) ResolveCompanies(ctx context.Context, ids []string) ([]domain.Company, error) {
	if m.ResolveCompaniesFn == nil {
		return nil, errNotStubbed
	}
	return m.ResolveCompaniesFn(ctx, ids)
}

func (m *mockDirectory) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	if m.ListCompaniesFn == nil {
		return nil, errNotStubbed
	}
	return m.ListCompaniesFn(ctx)
}

func (m *mockDirectory) UpsertCompanies(ctx context.Context, companies []domain.Company) error {
	if m.UpsertCompaniesFn == nil {
		return errNotStubbed
	}
	return m.UpsertCompaniesFn(ctx, companies)
}

func (m *mockDirectory) SoftDeleteMissing(ctx context.Context, activeIDs []string) error {
	if m.SoftDeleteMissingFn == nil {
		return errNotStubbed
	}
	return m.SoftDeleteMissingFn(ctx, activeIDs)
}

type mockOptimizer struct {
	OptimizeFn func(ctx context.Context, coords []domain.Coordinates, origin domain.Origin) (domain.OptimizedRoute, error)
}

var _ ports.RouteOptimizer = (*mockOptimizer)(nil)

func (m *mockOptimizer) Optimize(ctx context.Context, coords []domain.Coordinates, origin domain.Origin) (domain.OptimizedRoute, error) {
	return m.OptimizeFn(ctx, coords, origin)
}

type mockRouteRepo struct {
	CreateRouteFn       func(ctx context.Context, route *domain.Route) error
	GetRouteFn          func(ctx context.Context, id uuid.UUID) (domain.Route, error)
	GetActiveRouteFn    func(ctx context.Context, userID uuid.UUID) (domain.Route, error)
	ListRoutesFn        func(ctx context.Context, userID uuid.UUID, status *domain.RouteStatus) ([]domain.Route, error)
	UpdateRouteStatusFn func(ctx context.Context, id uuid.UUID, status domain.RouteStatus, completedAt *time.Time) error
	ReplaceStopsFn      func(ctx context.Context, route *domain.Route) error
	CompleteStopFn      func(ctx context.Context, routeID, stopID uuid.UUID, at time.Time) error
	DeleteRouteFn       func(ctx context.Context, id uuid.UUID) error
}

var _ ports.RouteRepository = (*mockRouteRepo)(nil)

func (m *mockRouteRepo) CreateRoute(ctx context.Context, route *domain.Route) error {
	if m.CreateRouteFn == nil {
		return errNotStubbed
	}
	return m.CreateRouteFn(ctx, route)
}

func (m *mockRouteRepo) GetRoute(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	if m.GetRouteFn == nil {
		return domain.Route{}, errNotStubbed
	}
	return m.GetRouteFn(ctx, id)
}

func (m *mockRouteRepo) GetActiveRoute(ctx context.Context, userID uuid.UUID) (domain.Route, error) {
	if m.GetActiveRouteFn == nil {
		return domain.Route{}, errNotStubbed
	}
	return m.GetActiveRouteFn(ctx, userID)
}

func (m *mockRouteRepo) ListRoutes(ctx context.Context, userID uuid.UUID, status *domain.RouteStatus) ([]domain.Route, error) {
	if m.ListRoutesFn == nil {
		return nil, errNotStubbed
	}
	return m.ListRoutesFn(ctx, userID, status)
}

func (m *mockRouteRepo) UpdateRouteStatus(ctx context.Context, id uuid.UUID, status domain.RouteStatus, completedAt *time.Time) error {
	if m.UpdateRouteStatusFn == nil {
		return errNotStubbed
	}
	return m.UpdateRouteStatusFn(ctx, id, status, completedAt)
}

func (m *mockRouteRepo) ReplaceStops(ctx context.Context, route *domain.Route) error {
	if m.ReplaceStopsFn == nil {
		return errNotStubbed
	}
	return m.ReplaceStopsFn(ctx, route)
}

func (m *mockRouteRepo) CompleteStop(ctx context.Context, routeID, stopID uuid.UUID, at time.Time) error {
	if m.CompleteStopFn == nil {
		return errNotStubbed
	}
	return m.CompleteStopFn(ctx, routeID, stopID, at)
}

func (m *mockRouteRepo) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	if m.DeleteRouteFn == nil {
		return errNotStubbed
	}
	return m.DeleteRouteFn(ctx, id)
}

type mockCheckInRepo struct {
	CreateCheckInFn       func(ctx context.Context, checkIn *domain.CheckIn) error
	GetCheckInFn          func(ctx context.Context, id uuid.UUID) (domain.CheckIn, error)
	UpdateNoteFn          func(ctx context.Context, id uuid.UUID, note string) (domain.CheckIn, error)
	SetCRMNoteIDFn        func(ctx context.Context, id uuid.UUID, crmNoteID string) error
	ListCheckInsBetweenFn func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.CheckIn, error)
}

var _ ports.CheckInRepository = (*mockCheckInRepo)(nil)

func (m *mockCheckInRepo) CreateCheckIn(ctx context.Context, checkIn *domain.CheckIn) error {
	if m.CreateCheckInFn == nil {
		return errNotStubbed
	}
	return m.CreateCheckInFn(ctx, checkIn)
}

func (m *mockCheckInRepo) GetCheckIn(ctx context.Context, id uuid.UUID) (domain.CheckIn, error) {
	if m.GetCheckInFn == nil {
		return domain.CheckIn{}, errNotStubbed
	}
	return m.GetCheckInFn(ctx, id)
}

func (m *mockCheckInRepo) UpdateNote(ctx context.Context, id uuid.UUID, note string) (domain.CheckIn, error) {
	if m.UpdateNoteFn == nil {
		return domain.CheckIn{}, errNotStubbed
	}
	return m.UpdateNoteFn(ctx, id, note)
}

func (m *mockCheckInRepo) SetCRMNoteID(ctx context.Context, id uuid.UUID, crmNoteID string) error {
	if m.SetCRMNoteIDFn == nil {
		return errNotStubbed
	}
	return m.SetCRMNoteIDFn(ctx, id, crmNoteID)
}

func (m *mockCheckInRepo) ListCheckInsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.CheckIn, error) {
	if m.ListCheckInsBetweenFn == nil {
		return nil, errNotStubbed
	}
	return m.ListCheckInsBetweenFn(ctx, userID, from, to)
}

type mockVisitLogger struct {
	LogVisitFn func(ctx context.Context, v ports.Visit) (string, error)
}

var _ ports.VisitLogger = (*mockVisitLogger)(nil)

func (m *mockVisitLogger) LogVisit(ctx context.Context, v ports.Visit) (string, error) {
	return m.LogVisitFn(ctx, v)
}

type mockPlanner struct {
	PlanFn func(ctx context.Context, companyIDs []string, origin domain.Origin) (RoutePlan, error)
}

var _ TailPlanner = (*mockPlanner)(nil)

func (m *mockPlanner) Plan(ctx context.Context, companyIDs []string, origin domain.Origin) (RoutePlan, error) {
	return m.PlanFn(ctx, companyIDs, origin)
}

type mockRouteCache struct {
	GetFn        func(ctx context.Context, userID uuid.UUID) (domain.Route, bool, error)
	PutFn        func(ctx context.Context, userID uuid.UUID, route domain.Route) error
	InvalidateFn func(ctx context.Context, userID uuid.UUID) error
}

var _ ports.ActiveRouteCache = (*mockRouteCache)(nil)

func (m *mockRouteCache) Get(ctx context.Context, userID uuid.UUID) (domain.Route, bool, error) {
	if m.GetFn == nil {
		return domain.Route{}, false, nil
	}
	return m.GetFn(ctx, userID)
}

func (m *mockRouteCache) Put(ctx context.Context, userID uuid.UUID, route domain.Route) error {
	if m.PutFn == nil {
		return nil
	}
	return m.PutFn(ctx, userID, route)
}

func (m *mockRouteCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if m.InvalidateFn == nil {
		return nil
	}
	return m.InvalidateFn(ctx, userID)
}

type mockCompanySource struct {
	FetchCompaniesFn func(ctx context.Context) ([]domain.Company, error)
}

var _ ports.CompanySource = (*mockCompanySource)(nil)

func (m *mockCompanySource) FetchCompanies(ctx context.Context) ([]domain.Company, error) {
	return m.FetchCompaniesFn(ctx)
}

type mockGeocoder struct {
	GeocodeFn func(ctx context.Context, address string) (domain.Coordinates, bool, error)
}

var _ ports.Geocoder = (*mockGeocoder)(nil)

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	return m.GeocodeFn(ctx, address)
}

type mockGeocodeCache struct {
	LookupFn func(ctx context.Context, address string) (domain.Coordinates, bool, error)
	StoreFn  func(ctx context.Context, address string, coords domain.Coordinates) error
}

var _ ports.GeocodeCache = (*mockGeocodeCache)(nil)

func (m *mockGeocodeCache) Lookup(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if m.LookupFn == nil {
		return domain.Coordinates{}, false, nil
	}
	return m.LookupFn(ctx, address)
}

func (m *mockGeocodeCache) Store(ctx context.Context, address string, coords domain.Coordinates) error {
	if m.StoreFn == nil {
		return nil
	}
	return m.StoreFn(ctx, address, coords)
}

type mockSyncLogs struct {
	StartSyncFn  func(ctx context.Context) (uuid.UUID, error)
	FinishSyncFn func(ctx context.Context, id uuid.UUID, synced int, syncErr error) error
	LatestSyncFn func(ctx context.Context) (domain.SyncLog, error)
}

var _ ports.SyncLogRepository = (*mockSyncLogs)(nil)

func (m *mockSyncLogs) StartSync(ctx context.Context) (uuid.UUID, error) {
	if m.StartSyncFn == nil {
		return uuid.New(), nil
	}
	return m.StartSyncFn(ctx)
}

func (m *mockSyncLogs) FinishSync(ctx context.Context, id uuid.UUID, synced int, syncErr error) error {
	if m.FinishSyncFn == nil {
		return nil
	}
	return m.FinishSyncFn(ctx, id, synced, syncErr)
}

func (m *mockSyncLogs) LatestSync(ctx context.Context) (domain.SyncLog, error) {
	if m.LatestSyncFn == nil {
		return domain.SyncLog{}, errNotStubbed
	}
	return m.LatestSyncFn(ctx)
}
