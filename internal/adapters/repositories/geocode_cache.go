package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Postgres-backed address -> coordinates cache. The sync pipeline consults
// it before paying for a provider geocode; entries never expire (street
// addresses do not move).
type PgGeocodeCache struct{ DB *sql.DB }

var _ ports.GeocodeCache = (*PgGeocodeCache)(nil)

func NewPgGeocodeCache(db *sql.DB) *PgGeocodeCache {
	return &PgGeocodeCache{DB: db}
}

// normalize collapses whitespace so lookups and stores agree on cache keys.
func normalize(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

func (c *PgGeocodeCache) Lookup(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	addr := normalize(address)
	if addr == "" {
		return domain.Coordinates{}, false, nil
	}

	row := c.DB.QueryRowContext(ctx,
		`SELECT lat, lng FROM geocode_cache WHERE address = $1;`, addr)

	var coords domain.Coordinates
	err := row.Scan(&coords.Lat, &coords.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode cache lookup %q: %w", addr, err)
	}
	return coords, true, nil
}

func (c *PgGeocodeCache) Store(ctx context.Context, address string, coords domain.Coordinates) error {
	addr := normalize(address)
	if addr == "" {
		return errors.New("geocode cache: empty address key")
	}

	_, err := c.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng)
	VALUES ($1, $2, $3)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng;
	`, addr, coords.Lat, coords.Lng)
	if err != nil {
		return fmt.Errorf("geocode cache store %q: %w", addr, err)
	}
	return nil
}
