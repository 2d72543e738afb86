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

// Postgres-backed implementation of the SyncLogRepository port.
type PgSyncLogRepository struct{ DB *sql.DB }

var _ ports.SyncLogRepository = (*PgSyncLogRepository)(nil)

func NewPgSyncLogRepository(db *sql.DB) *PgSyncLogRepository {
	return &PgSyncLogRepository{DB: db}
}

func (r *PgSyncLogRepository) StartSync(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO sync_logs (id, started_at, status, companies_synced)
	VALUES ($1, $2, $3, 0);
	`, id, time.Now().UTC(), domain.SyncRunning)
	if err != nil {
		return uuid.Nil, fmt.Errorf("start sync log: %w", err)
	}
	return id, nil
}

func (r *PgSyncLogRepository) FinishSync(ctx context.Context, id uuid.UUID, synced int, syncErr error) error {
	status := domain.SyncSuccess
	var errText sql.NullString
	if syncErr != nil {
		status = domain.SyncFailed
		errText = sql.NullString{String: syncErr.Error(), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
	UPDATE sync_logs SET finished_at = $2, status = $3, companies_synced = $4, error = $5
	WHERE id = $1;
	`, id, time.Now().UTC(), status, synced, errText)
	if err != nil {
		return fmt.Errorf("finish sync log: %w", err)
	}
	return nil
}

func (r *PgSyncLogRepository) LatestSync(ctx context.Context) (domain.SyncLog, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, status, companies_synced, error
	FROM sync_logs
	ORDER BY started_at DESC
	LIMIT 1;
	`)

	var log domain.SyncLog
	var finishedAt sql.NullTime
	var errText sql.NullString

	err := row.Scan(&log.ID, &log.StartedAt, &finishedAt, &log.Status, &log.CompaniesSynced, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SyncLog{}, fmt.Errorf("latest sync log: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.SyncLog{}, fmt.Errorf("latest sync log: %w", err)
	}

	log.FinishedAt = timePtr(finishedAt)
	log.Error = strPtr(errText)
	return log, nil
}
