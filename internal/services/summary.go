package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/geo"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// SummaryVisit is one check-in in a daily recap, with the company name
// resolved for display.
type SummaryVisit struct {
	CheckIn     domain.CheckIn
	CompanyName string
}

// DailySummary recaps one rep's day: every visit in order plus the straight-
// line mileage between consecutive check-in positions. The mileage is an
// estimate, not odometer truth.
type DailySummary struct {
	Day        time.Time
	Visits     []SummaryVisit
	TotalMiles float64
}

type Summaries struct {
	Records   ports.CheckInRepository
	Companies ports.CompanyDirectory
}

// ForDay builds the recap for one calendar day in the day's own location.
// The day boundary is [midnight, next midnight) of day's Location.
func (s *Summaries) ForDay(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (_ DailySummary, err error) {
	defer obs.Time(ctx, "summaries.ForDay")(&err)

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	checkIns, err := s.Records.ListCheckInsBetween(ctx, userID, from, to)
	if err != nil {
		return DailySummary{}, fmt.Errorf("daily summary: %w", err)
	}

	ids := make([]string, 0, len(checkIns))
	seen := make(map[string]struct{}, len(checkIns))
	for _, ci := range checkIns {
		if _, ok := seen[ci.CompanyID]; ok {
			continue
		}
		seen[ci.CompanyID] = struct{}{}
		ids = append(ids, ci.CompanyID)
	}

	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		companies, err := s.Companies.ResolveCompanies(ctx, ids)
		if err != nil {
			return DailySummary{}, fmt.Errorf("daily summary: resolve companies: %w", err)
		}
		for _, c := range companies {
			names[c.ID] = c.Name
		}
	}

	summary := DailySummary{Day: from}
	for i, ci := range checkIns {
		name := names[ci.CompanyID]
		if name == "" {
			name = ci.CompanyID
		}
		summary.Visits = append(summary.Visits, SummaryVisit{CheckIn: ci, CompanyName: name})

		if i > 0 {
			prev := checkIns[i-1]
			summary.TotalMiles += geo.DistanceMiles(
				domain.Coordinates{Lat: prev.Lat, Lng: prev.Lng},
				domain.Coordinates{Lat: ci.Lat, Lng: ci.Lng},
			)
		}
	}
	summary.TotalMiles = math.Round(summary.TotalMiles*10) / 10

	return summary, nil
}
