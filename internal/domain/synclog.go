package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SyncRunning = "running"
	SyncSuccess = "success"
	SyncFailed  = "failed"
)

// One run of the CRM company sync pipeline.
type SyncLog struct {
	ID              uuid.UUID
	StartedAt       time.Time
	FinishedAt      *time.Time
	Status          string
	CompaniesSynced int
	Error           *string
}
