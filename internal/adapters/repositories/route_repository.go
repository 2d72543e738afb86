package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Postgres-backed implementation of the RouteRepository port. Routes and
// their stop records always change together inside one transaction.
type PgRouteRepository struct{ DB *sql.DB }

var _ ports.RouteRepository = (*PgRouteRepository)(nil)

func NewPgRouteRepository(db *sql.DB) *PgRouteRepository {
	return &PgRouteRepository{DB: db}
}

const routeColumns = `id, user_id, total_distance_mi, total_eta_min,
	current_stop_index, status, route_geometry, created_at, completed_at`

const stopColumns = `id, route_id, company_id, stop_index, name, lat, lng,
	street, city, state, postal_code, distance_from_prev_mi, eta_from_prev_min,
	completed, completed_at`

func (r *PgRouteRepository) CreateRoute(ctx context.Context, route *domain.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create route: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO routes
		(id, user_id, total_distance_mi, total_eta_min, current_stop_index, status, route_geometry, created_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`,
		route.ID, route.UserID,
		nullFloat(route.TotalDistanceMi), nullFloat(route.TotalEtaMin),
		route.CurrentStopIndex, string(route.Status), nullStr(route.GeometryGeoJSON),
		route.CreatedAt, nullTime(route.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create route: insert route row: %w", err)
	}

	if err := insertStops(ctx, tx, route.ID, route.Stops); err != nil {
		return fmt.Errorf("create route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create route: commit: %w", err)
	}
	return nil
}

func (r *PgRouteRepository) GetRoute(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1;`, id)

	route, err := scanRoute(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, fmt.Errorf("get route %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route: %w", err)
	}

	if route.Stops, err = r.loadStops(ctx, route.ID); err != nil {
		return domain.Route{}, fmt.Errorf("get route: %w", err)
	}
	return route, nil
}

func (r *PgRouteRepository) GetActiveRoute(ctx context.Context, userID uuid.UUID) (domain.Route, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT `+routeColumns+` FROM routes
	WHERE user_id = $1 AND status = $2
	ORDER BY created_at DESC
	LIMIT 1;
	`, userID, string(domain.RouteActive))

	route, err := scanRoute(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, fmt.Errorf("active route for user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get active route: %w", err)
	}

	if route.Stops, err = r.loadStops(ctx, route.ID); err != nil {
		return domain.Route{}, fmt.Errorf("get active route: %w", err)
	}
	return route, nil
}

func (r *PgRouteRepository) ListRoutes(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.RouteStatus,
) ([]domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0, 16)
	for rows.Next() {
		route, err := scanRoute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	for i := range routes {
		if routes[i].Stops, err = r.loadStops(ctx, routes[i].ID); err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
	}
	return routes, nil
}

func (r *PgRouteRepository) UpdateRouteStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RouteStatus,
	completedAt *time.Time,
) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE routes SET status = $2, completed_at = $3 WHERE id = $1;
	`, id, string(status), nullTime(completedAt))
	if err != nil {
		return fmt.Errorf("update route status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update route status: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update route status %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Rewrite the route's stop set wholesale. The delete-then-insert keeps the
// (route_id, stop_index) uniqueness constraint trivially satisfiable across
// arbitrary reorderings.
func (r *PgRouteRepository) ReplaceStops(ctx context.Context, route *domain.Route) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace stops: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	UPDATE routes SET
		total_distance_mi = $2,
		total_eta_min = $3,
		current_stop_index = $4,
		status = $5,
		route_geometry = $6,
		completed_at = $7
	WHERE id = $1;
	`,
		route.ID,
		nullFloat(route.TotalDistanceMi), nullFloat(route.TotalEtaMin),
		route.CurrentStopIndex, string(route.Status),
		nullStr(route.GeometryGeoJSON), nullTime(route.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("replace stops: update route row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace stops: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("replace stops for route %s: %w", route.ID, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM route_stops WHERE route_id = $1;`, route.ID); err != nil {
		return fmt.Errorf("replace stops: clear old stops: %w", err)
	}

	if err := insertStops(ctx, tx, route.ID, route.Stops); err != nil {
		return fmt.Errorf("replace stops: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace stops: commit: %w", err)
	}
	return nil
}

func (r *PgRouteRepository) CompleteStop(ctx context.Context, routeID, stopID uuid.UUID, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE route_stops SET completed = TRUE, completed_at = $3
	WHERE route_id = $1 AND id = $2;
	`, routeID, stopID, at)
	if err != nil {
		return fmt.Errorf("complete stop: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete stop: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("complete stop %s on route %s: %w", stopID, routeID, domain.ErrNotFound)
	}
	return nil
}

func (r *PgRouteRepository) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM routes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete route: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete route %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PgRouteRepository) loadStops(ctx context.Context, routeID uuid.UUID) ([]domain.RouteStop, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT `+stopColumns+` FROM route_stops
	WHERE route_id = $1
	ORDER BY stop_index;
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("load stops: query route_stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.RouteStop, 0, 16)
	for rows.Next() {
		var s domain.RouteStop
		var street, city, state, postalCode sql.NullString
		var legDist, legEta sql.NullFloat64
		var completedAt sql.NullTime

		err := rows.Scan(
			&s.ID, &s.RouteID, &s.CompanyID, &s.StopIndex, &s.Name, &s.Lat, &s.Lng,
			&street, &city, &state, &postalCode, &legDist, &legEta,
			&s.Completed, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("load stops: scan row: %w", err)
		}

		s.Street = strPtr(street)
		s.City = strPtr(city)
		s.State = strPtr(state)
		s.PostalCode = strPtr(postalCode)
		s.DistanceFromPrevMi = floatPtr(legDist)
		s.EtaFromPrevMin = floatPtr(legEta)
		s.CompletedAt = timePtr(completedAt)
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load stops: row iteration: %w", err)
	}
	return stops, nil
}

func insertStops(ctx context.Context, tx *sql.Tx, routeID uuid.UUID, stops []domain.RouteStop) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_stops
		(id, route_id, company_id, stop_index, name, lat, lng, street, city, state,
		 postal_code, distance_from_prev_mi, eta_from_prev_min, completed, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`)
	if err != nil {
		return fmt.Errorf("insert stops: db prepare: %w", err)
	}
	defer stmt.Close()

	for i := range stops {
		s := &stops[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.RouteID = routeID

		_, err := stmt.ExecContext(ctx,
			s.ID, s.RouteID, s.CompanyID, s.StopIndex, s.Name, s.Lat, s.Lng,
			nullStr(s.Street), nullStr(s.City), nullStr(s.State), nullStr(s.PostalCode),
			nullFloat(s.DistanceFromPrevMi), nullFloat(s.EtaFromPrevMin),
			s.Completed, nullTime(s.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("insert stop index=%d: %w", s.StopIndex, err)
		}
	}
	return nil
}

func scanRoute(scan func(dest ...any) error) (domain.Route, error) {
	var route domain.Route
	var totalDist, totalEta sql.NullFloat64
	var status string
	var geometry sql.NullString
	var completedAt sql.NullTime

	err := scan(
		&route.ID, &route.UserID, &totalDist, &totalEta,
		&route.CurrentStopIndex, &status, &geometry,
		&route.CreatedAt, &completedAt,
	)
	if err != nil {
		return domain.Route{}, err
	}

	route.TotalDistanceMi = floatPtr(totalDist)
	route.TotalEtaMin = floatPtr(totalEta)
	route.Status = domain.RouteStatus(status)
	route.GeometryGeoJSON = strPtr(geometry)
	route.CompletedAt = timePtr(completedAt)
	return route, nil
}
