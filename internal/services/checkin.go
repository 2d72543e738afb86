package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

const crmLogTimeout = 30 * time.Second

// CheckInRequest carries the fields a rep submits from the check-in form.
type CheckInRequest struct {
	CompanyID string
	Lat       float64
	Lng       float64
	Note      string
}

// CheckInResult is the persisted check-in plus whatever the check-in did to
// the active route. Route is nil when no active route had a stop for the
// company.
type CheckInResult struct {
	CheckIn        domain.CheckIn
	Route          *domain.Route
	Reoptimized    bool
	RouteCompleted bool
}

// CheckIns records field visits. A check-in always lands in our own store
// first; completing the matching route stop and mirroring the note into the
// CRM are follow-on effects that must not block or fail the visit record.
type CheckIns struct {
	Records    ports.CheckInRepository
	Companies  ports.CompanyDirectory
	Routes     ports.RouteRepository
	Reconciler *Reconciler
	CRM        ports.VisitLogger
}

// Create validates the target company, persists the check-in, reconciles the
// user's active route if it has an uncompleted stop for the company, and
// mirrors the note to the CRM in the background.
func (c *CheckIns) Create(
	ctx context.Context,
	userID uuid.UUID,
	req CheckInRequest,
) (_ CheckInResult, err error) {
	defer obs.Time(ctx, "checkins.Create")(&err)

	company, err := c.Companies.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("create check-in: %w", err)
	}

	checkIn := domain.CheckIn{
		ID:        uuid.New(),
		UserID:    userID,
		CompanyID: company.ID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		CreatedAt: time.Now().UTC(),
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		checkIn.Note = &note
	}
	if err := c.Records.CreateCheckIn(ctx, &checkIn); err != nil {
		return CheckInResult{}, fmt.Errorf("create check-in: persist: %w", err)
	}

	result := CheckInResult{CheckIn: checkIn}
	c.reconcileRoute(ctx, userID, &result, req)
	c.logVisitAsync(checkIn, company.OwnerID)

	return result, nil
}

// reconcileRoute completes the matching stop on the user's active route, if
// any. The check-in already exists at this point, so reconciliation problems
// are logged and swallowed.
func (c *CheckIns) reconcileRoute(
	ctx context.Context,
	userID uuid.UUID,
	result *CheckInResult,
	req CheckInRequest,
) {
	route, err := c.Routes.GetActiveRoute(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "check-in route lookup failed",
			"user_id", userID, "error", err)
		return
	}

	matched := false
	for _, s := range route.Stops {
		if !s.Completed && s.CompanyID == req.CompanyID {
			matched = true
			break
		}
	}
	if !matched {
		return
	}

	pos := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	rec, err := c.Reconciler.CompleteStop(ctx, route.ID, req.CompanyID, &pos)
	if err != nil {
		slog.WarnContext(ctx, "check-in route reconcile failed",
			"route_id", route.ID, "company_id", req.CompanyID, "error", err)
		return
	}

	result.Route = &rec.Route
	result.Reoptimized = rec.Reoptimized
	result.RouteCompleted = rec.RouteCompleted
}

// logVisitAsync mirrors the check-in into the CRM without holding up the
// response. Detached from the request context so an impatient client can't
// cancel the CRM write.
func (c *CheckIns) logVisitAsync(checkIn domain.CheckIn, ownerID *string) {
	if c.CRM == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), crmLogTimeout)
		defer cancel()

		note := ""
		if checkIn.Note != nil {
			note = *checkIn.Note
		}

		crmNoteID, err := c.CRM.LogVisit(ctx, ports.Visit{
			CompanyID: checkIn.CompanyID,
			UserID:    checkIn.UserID,
			OwnerID:   ownerID,
			Lat:       checkIn.Lat,
			Lng:       checkIn.Lng,
			Note:      note,
			At:        checkIn.CreatedAt,
		})
		if err != nil {
			slog.WarnContext(ctx, "crm visit log failed",
				"check_in_id", checkIn.ID, "company_id", checkIn.CompanyID, "error", err)
			return
		}

		if err := c.Records.SetCRMNoteID(ctx, checkIn.ID, crmNoteID); err != nil {
			slog.WarnContext(ctx, "crm note id save failed",
				"check_in_id", checkIn.ID, "crm_note_id", crmNoteID, "error", err)
		}
	}()
}

// UpdateNote edits the note on the caller's own check-in.
func (c *CheckIns) UpdateNote(
	ctx context.Context,
	userID, checkInID uuid.UUID,
	note string,
) (_ domain.CheckIn, err error) {
	defer obs.Time(ctx, "checkins.UpdateNote")(&err)

	existing, err := c.Records.GetCheckIn(ctx, checkInID)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("update check-in note: %w", err)
	}
	if existing.UserID != userID {
		return domain.CheckIn{}, fmt.Errorf(
			"update check-in note: %s belongs to another user: %w",
			checkInID, domain.ErrNotFound,
		)
	}

	updated, err := c.Records.UpdateNote(ctx, checkInID, strings.TrimSpace(note))
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("update check-in note: %w", err)
	}
	return updated, nil
}
