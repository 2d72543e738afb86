package domain

import (
	"time"

	"github.com/google/uuid"
)

// A recorded field visit. CRMNoteID is filled in asynchronously once the
// visit has been mirrored to the CRM; it stays nil when that write fails.
type CheckIn struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID string
	Lat       float64
	Lng       float64
	Note      *string
	CRMNoteID *string
	CreatedAt time.Time
}
