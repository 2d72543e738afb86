package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// CompanySyncer pulls the company book from the CRM into the local directory
// and geocodes addresses that don't yet have coordinates. Coordinates a
// company already carries are kept; geocoding only fills gaps, so a transient
// geocoder outage degrades to fewer mappable companies rather than wiping
// positions we had.
type CompanySyncer struct {
	Source    ports.CompanySource
	Geocoder  ports.Geocoder
	Cache     ports.GeocodeCache
	Directory ports.CompanyDirectory
	Logs      ports.SyncLogRepository

	// Pause between provider geocode calls. Zero means no pause.
	GeocodeDelay time.Duration

	// When true, companies absent from the CRM feed are soft-deleted so they
	// stop appearing on the map without breaking historical routes.
	PruneMissing bool
}

// Sync runs one full pull and returns the number of companies written.
// Every run is bracketed in the sync log, failures included.
func (s *CompanySyncer) Sync(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "companies.Sync")(&err)

	logID, logErr := s.Logs.StartSync(ctx)
	if logErr != nil {
		slog.WarnContext(ctx, "sync log start failed", "error", logErr)
	}

	synced, err := s.sync(ctx)

	if logErr == nil {
		if ferr := s.Logs.FinishSync(ctx, logID, synced, err); ferr != nil {
			slog.WarnContext(ctx, "sync log finish failed", "sync_id", logID, "error", ferr)
		}
	}
	return synced, err
}

func (s *CompanySyncer) sync(ctx context.Context) (int, error) {
	fetched, err := s.Source.FetchCompanies(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync companies: fetch: %w", err)
	}

	existing, err := s.Directory.ListCompanies(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync companies: list existing: %w", err)
	}
	known := make(map[string]domain.Company, len(existing))
	for _, c := range existing {
		known[c.ID] = c
	}

	now := time.Now().UTC()
	activeIDs := make([]string, 0, len(fetched))
	for i := range fetched {
		c := &fetched[i]
		c.LastSyncedAt = now
		activeIDs = append(activeIDs, c.ID)

		if prev, ok := known[c.ID]; ok && prev.HasCoordinates() {
			c.Lat, c.Lng = prev.Lat, prev.Lng
			continue
		}
		s.geocode(ctx, c)
	}

	if err := s.Directory.UpsertCompanies(ctx, fetched); err != nil {
		return 0, fmt.Errorf("sync companies: upsert: %w", err)
	}

	if s.PruneMissing && len(activeIDs) > 0 {
		if err := s.Directory.SoftDeleteMissing(ctx, activeIDs); err != nil {
			return 0, fmt.Errorf("sync companies: prune: %w", err)
		}
	}

	return len(fetched), nil
}

// geocode fills c's coordinates from the cache or the provider. Failures and
// unresolvable addresses leave the company unmapped; the sync carries on.
func (s *CompanySyncer) geocode(ctx context.Context, c *domain.Company) {
	address := c.Address()
	if address == "" || s.Geocoder == nil {
		return
	}

	if s.Cache != nil {
		if coords, ok, err := s.Cache.Lookup(ctx, address); err != nil {
			slog.WarnContext(ctx, "geocode cache lookup failed",
				"company_id", c.ID, "error", err)
		} else if ok {
			c.Lat, c.Lng = &coords.Lat, &coords.Lng
			return
		}
	}

	coords, found, err := s.Geocoder.Geocode(ctx, address)
	if err != nil {
		slog.WarnContext(ctx, "geocode failed",
			"company_id", c.ID, "address", address, "error", err)
		return
	}
	if s.GeocodeDelay > 0 {
		select {
		case <-time.After(s.GeocodeDelay):
		case <-ctx.Done():
			return
		}
	}
	if !found {
		slog.InfoContext(ctx, "address did not geocode",
			"company_id", c.ID, "address", address)
		return
	}

	c.Lat, c.Lng = &coords.Lat, &coords.Lng
	if s.Cache != nil {
		if err := s.Cache.Store(ctx, address, coords); err != nil {
			slog.WarnContext(ctx, "geocode cache store failed",
				"company_id", c.ID, "error", err)
		}
	}
}

// RunPeriodic blocks, syncing every interval until ctx is cancelled. The
// first sync runs immediately.
func (s *CompanySyncer) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil {
			slog.ErrorContext(ctx, "periodic company sync failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
