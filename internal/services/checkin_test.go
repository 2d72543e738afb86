package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

func TestCreateCheckInCompletesRouteStopAndLogsVisit(t *testing.T) {
	userID := uuid.New()
	routeID := uuid.New()
	owner := "owner-9"

	route := domain.Route{
		ID:     routeID,
		UserID: userID,
		Status: domain.RouteActive,
		Stops: []domain.RouteStop{
			testStop(routeID, "acme", 0, false),
			testStop(routeID, "besco", 1, false),
		},
	}

	var saved *domain.CheckIn
	visits := make(chan ports.Visit, 1)
	crmIDs := make(chan string, 1)

	svc := &CheckIns{
		Records: &mockCheckInRepo{
			CreateCheckInFn: func(_ context.Context, ci *domain.CheckIn) error {
				saved = ci
				return nil
			},
			SetCRMNoteIDFn: func(_ context.Context, id uuid.UUID, crmNoteID string) error {
				crmIDs <- crmNoteID
				return nil
			},
		},
		Companies: &mockDirectory{
			GetCompanyFn: func(_ context.Context, id string) (domain.Company, error) {
				c := testCompany(id, 33.45, -112.07)
				c.OwnerID = &owner
				return c, nil
			},
		},
		Routes: &mockRouteRepo{
			GetActiveRouteFn: func(_ context.Context, id uuid.UUID) (domain.Route, error) {
				require.Equal(t, userID, id)
				return route, nil
			},
		},
		Reconciler: &Reconciler{
			Routes: &mockRouteRepo{
				GetRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
					return route, nil
				},
				CompleteStopFn: func(_ context.Context, _, _ uuid.UUID, _ time.Time) error { return nil },
				ReplaceStopsFn: func(_ context.Context, _ *domain.Route) error { return nil },
			},
			Planner: &mockPlanner{
				PlanFn: func(_ context.Context, ids []string, _ domain.Origin) (RoutePlan, error) {
					return planFromIDs(ids, []int{0}), nil
				},
			},
		},
		CRM: &mockVisitLogger{
			LogVisitFn: func(_ context.Context, v ports.Visit) (string, error) {
				visits <- v
				return "note-1", nil
			},
		},
	}

	res, err := svc.Create(context.Background(), userID, CheckInRequest{
		CompanyID: "acme",
		Lat:       33.4501,
		Lng:       -112.0701,
		Note:      "  left samples  ",
	})
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "acme", saved.CompanyID)
	require.NotNil(t, saved.Note)
	assert.Equal(t, "left samples", *saved.Note)

	require.NotNil(t, res.Route)
	assert.True(t, res.Route.Stops[0].Completed)
	assert.True(t, res.Reoptimized)
	assert.False(t, res.RouteCompleted)

	select {
	case v := <-visits:
		assert.Equal(t, "acme", v.CompanyID)
		assert.Equal(t, userID, v.UserID)
		require.NotNil(t, v.OwnerID)
		assert.Equal(t, owner, *v.OwnerID)
		assert.Equal(t, "left samples", v.Note)
	case <-time.After(2 * time.Second):
		t.Fatal("crm visit was never logged")
	}

	select {
	case id := <-crmIDs:
		assert.Equal(t, "note-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("crm note id was never saved")
	}
}

func TestCreateCheckInUnknownCompany(t *testing.T) {
	svc := &CheckIns{
		Companies: &mockDirectory{
			GetCompanyFn: func(_ context.Context, _ string) (domain.Company, error) {
				return domain.Company{}, domain.ErrNotFound
			},
		},
	}

	_, err := svc.Create(context.Background(), uuid.New(), CheckInRequest{CompanyID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateCheckInSurvivesCRMOutage(t *testing.T) {
	logged := make(chan struct{}, 1)

	svc := &CheckIns{
		Records: &mockCheckInRepo{
			CreateCheckInFn: func(_ context.Context, _ *domain.CheckIn) error { return nil },
		},
		Companies: &mockDirectory{
			GetCompanyFn: func(_ context.Context, id string) (domain.Company, error) {
				return testCompany(id, 33.45, -112.07), nil
			},
		},
		Routes: &mockRouteRepo{
			GetActiveRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return domain.Route{}, domain.ErrNotFound
			},
		},
		CRM: &mockVisitLogger{
			LogVisitFn: func(_ context.Context, _ ports.Visit) (string, error) {
				logged <- struct{}{}
				return "", errors.New("hubspot 503")
			},
		},
	}

	res, err := svc.Create(context.Background(), uuid.New(), CheckInRequest{CompanyID: "acme"})
	require.NoError(t, err, "a CRM outage must not fail the check-in")
	assert.Nil(t, res.Route)

	select {
	case <-logged:
	case <-time.After(2 * time.Second):
		t.Fatal("crm logger was never invoked")
	}
}

func TestCreateCheckInWithoutMatchingStopLeavesRouteAlone(t *testing.T) {
	routeID := uuid.New()
	userID := uuid.New()

	svc := &CheckIns{
		Records: &mockCheckInRepo{
			CreateCheckInFn: func(_ context.Context, _ *domain.CheckIn) error { return nil },
		},
		Companies: &mockDirectory{
			GetCompanyFn: func(_ context.Context, id string) (domain.Company, error) {
				return testCompany(id, 33.45, -112.07), nil
			},
		},
		Routes: &mockRouteRepo{
			GetActiveRouteFn: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
				return domain.Route{
					ID:     routeID,
					UserID: userID,
					Stops:  []domain.RouteStop{testStop(routeID, "other", 0, false)},
				}, nil
			},
		},
	}

	res, err := svc.Create(context.Background(), userID, CheckInRequest{CompanyID: "acme"})
	require.NoError(t, err)
	assert.Nil(t, res.Route, "an off-route visit must not touch the route")
}

func TestUpdateNoteChecksOwnership(t *testing.T) {
	owner := uuid.New()
	checkInID := uuid.New()

	svc := &CheckIns{
		Records: &mockCheckInRepo{
			GetCheckInFn: func(_ context.Context, id uuid.UUID) (domain.CheckIn, error) {
				return domain.CheckIn{ID: id, UserID: owner}, nil
			},
			UpdateNoteFn: func(_ context.Context, id uuid.UUID, note string) (domain.CheckIn, error) {
				updated := domain.CheckIn{ID: id, UserID: owner, Note: &note}
				return updated, nil
			},
		},
	}

	_, err := svc.UpdateNote(context.Background(), uuid.New(), checkInID, "stranger edit")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := svc.UpdateNote(context.Background(), owner, checkInID, " revised ")
	require.NoError(t, err)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "revised", *updated.Note)
}
