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

// Postgres-backed implementation of the CheckInRepository port.
type PgCheckInRepository struct{ DB *sql.DB }

var _ ports.CheckInRepository = (*PgCheckInRepository)(nil)

func NewPgCheckInRepository(db *sql.DB) *PgCheckInRepository {
	return &PgCheckInRepository{DB: db}
}

const checkInColumns = `id, user_id, company_id, lat, lng, note, crm_note_id, created_at`

func (r *PgCheckInRepository) CreateCheckIn(ctx context.Context, checkIn *domain.CheckIn) error {
	if checkIn.ID == uuid.Nil {
		checkIn.ID = uuid.New()
	}

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO check_ins (id, user_id, company_id, lat, lng, note, crm_note_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`,
		checkIn.ID, checkIn.UserID, checkIn.CompanyID,
		checkIn.Lat, checkIn.Lng,
		nullStr(checkIn.Note), nullStr(checkIn.CRMNoteID), checkIn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}

func (r *PgCheckInRepository) GetCheckIn(ctx context.Context, id uuid.UUID) (domain.CheckIn, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins WHERE id = $1;`, id)

	ci, err := scanCheckIn(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckIn{}, fmt.Errorf("get check-in %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("get check-in: %w", err)
	}
	return ci, nil
}

func (r *PgCheckInRepository) UpdateNote(ctx context.Context, id uuid.UUID, note string) (domain.CheckIn, error) {
	row := r.DB.QueryRowContext(ctx, `
	UPDATE check_ins SET note = $2 WHERE id = $1
	RETURNING `+checkInColumns+`;
	`, id, note)

	ci, err := scanCheckIn(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckIn{}, fmt.Errorf("update check-in note %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("update check-in note: %w", err)
	}
	return ci, nil
}

func (r *PgCheckInRepository) SetCRMNoteID(ctx context.Context, id uuid.UUID, crmNoteID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE check_ins SET crm_note_id = $2 WHERE id = $1;`, id, crmNoteID)
	if err != nil {
		return fmt.Errorf("set crm note id: %w", err)
	}
	return nil
}

func (r *PgCheckInRepository) ListCheckInsBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]domain.CheckIn, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT `+checkInColumns+` FROM check_ins
	WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	ORDER BY created_at;
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: query check_ins table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CheckIn, 0, 16)
	for rows.Next() {
		ci, err := scanCheckIn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list check-ins: scan row: %w", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list check-ins: row iteration: %w", err)
	}
	return out, nil
}

func scanCheckIn(scan func(dest ...any) error) (domain.CheckIn, error) {
	var ci domain.CheckIn
	var note, crmNoteID sql.NullString

	err := scan(&ci.ID, &ci.UserID, &ci.CompanyID, &ci.Lat, &ci.Lng, &note, &crmNoteID, &ci.CreatedAt)
	if err != nil {
		return domain.CheckIn{}, err
	}

	ci.Note = strPtr(note)
	ci.CRMNoteID = strPtr(crmNoteID)
	return ci, nil
}
