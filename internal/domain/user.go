package domain

import (
	"time"

	"github.com/google/uuid"
)

// A field-sales rep account. CRMOwnerID links check-ins to the rep's
// identity in the CRM when set.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Email        *string
	Name         *string
	CRMOwnerID   *string
	CreatedAt    time.Time
}
