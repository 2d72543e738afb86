package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Postgres-backed implementation of the CompanyDirectory port. Rows mirror
// the CRM; local writes happen only through the sync pipeline.
type PgCompanyRepository struct{ DB *sql.DB }

var _ ports.CompanyDirectory = (*PgCompanyRepository)(nil)

func NewPgCompanyRepository(db *sql.DB) *PgCompanyRepository {
	return &PgCompanyRepository{DB: db}
}

const companyColumns = `id, name, street, city, state, postal_code, country,
	owner_id, lat, lng, last_synced_at, is_deleted`

func (r *PgCompanyRepository) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1 AND NOT is_deleted;`, id)

	c, err := scanCompany(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Company{}, fmt.Errorf("get company %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// Return the companies found for ids, preserving input order.
// Unknown ids are dropped silently; the caller decides whether that matters.
func (r *PgCompanyRepository) ResolveCompanies(ctx context.Context, ids []string) ([]domain.Company, error) {
	if len(ids) == 0 {
		return []domain.Company{}, nil
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies
		 WHERE id = ANY($1::text[]) AND NOT is_deleted;`, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve companies: query companies table: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Company, len(ids))
	for rows.Next() {
		c, err := scanCompany(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("resolve companies: scan row: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve companies: row iteration: %w", err)
	}

	out := make([]domain.Company, 0, len(byID))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *PgCompanyRepository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE NOT is_deleted ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list companies: query companies table: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0, 64)
	for rows.Next() {
		c, err := scanCompany(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list companies: scan row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: row iteration: %w", err)
	}
	return companies, nil
}

// Insert or refresh mirrored company rows in one transaction.
func (r *PgCompanyRepository) UpsertCompanies(ctx context.Context, companies []domain.Company) error {
	if len(companies) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert companies: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO companies
		(id, name, street, city, state, postal_code, country, owner_id, lat, lng, last_synced_at, is_deleted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		street = EXCLUDED.street,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		postal_code = EXCLUDED.postal_code,
		country = EXCLUDED.country,
		owner_id = EXCLUDED.owner_id,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		last_synced_at = EXCLUDED.last_synced_at,
		is_deleted = FALSE;
	`)
	if err != nil {
		return fmt.Errorf("upsert companies: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range companies {
		_, err := stmt.ExecContext(ctx,
			c.ID, c.Name,
			nullStr(c.Street), nullStr(c.City), nullStr(c.State),
			nullStr(c.PostalCode), nullStr(c.Country), nullStr(c.OwnerID),
			nullFloat(c.Lat), nullFloat(c.Lng), c.LastSyncedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert company %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert companies: commit: %w", err)
	}
	return nil
}

// Flag companies absent from the latest CRM snapshot instead of deleting
// them; historical routes and check-ins still reference their rows.
func (r *PgCompanyRepository) SoftDeleteMissing(ctx context.Context, activeIDs []string) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE companies SET is_deleted = TRUE
	WHERE NOT (id = ANY($1::text[])) AND NOT is_deleted;
	`, activeIDs)
	if err != nil {
		return fmt.Errorf("soft delete missing companies: %w", err)
	}
	return nil
}

func scanCompany(scan func(dest ...any) error) (domain.Company, error) {
	var c domain.Company
	var street, city, state, postalCode, country, ownerID sql.NullString
	var lat, lng sql.NullFloat64

	err := scan(
		&c.ID, &c.Name, &street, &city, &state, &postalCode, &country,
		&ownerID, &lat, &lng, &c.LastSyncedAt, &c.Deleted,
	)
	if err != nil {
		return domain.Company{}, err
	}

	c.Street = strPtr(street)
	c.City = strPtr(city)
	c.State = strPtr(state)
	c.PostalCode = strPtr(postalCode)
	c.Country = strPtr(country)
	c.OwnerID = strPtr(ownerID)
	c.Lat = floatPtr(lat)
	c.Lng = floatPtr(lng)
	return c, nil
}
