package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Postgres-backed implementation of the UserRepository port.
type PgUserRepository struct{ DB *sql.DB }

var _ ports.UserRepository = (*PgUserRepository)(nil)

func NewPgUserRepository(db *sql.DB) *PgUserRepository {
	return &PgUserRepository{DB: db}
}

const userColumns = `id, username, password_hash, email, name, crm_owner_id, created_at`

func (r *PgUserRepository) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1;`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *PgUserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1;`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("get user %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *PgUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO users (id, username, password_hash, email, name, crm_owner_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`,
		user.ID, user.Username, user.PasswordHash,
		nullStr(user.Email), nullStr(user.Name), nullStr(user.CRMOwnerID),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var email, name, ownerID sql.NullString

	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &name, &ownerID, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}

	u.Email = strPtr(email)
	u.Name = strPtr(name)
	u.CRMOwnerID = strPtr(ownerID)
	return u, nil
}
