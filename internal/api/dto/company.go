package dto

import (
	"time"

	"fieldroute-service/internal/domain"
)

type CompanyResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Street     *string  `json:"street,omitempty"`
	City       *string  `json:"city,omitempty"`
	State      *string  `json:"state,omitempty"`
	PostalCode *string  `json:"postal_code,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	DistanceMi *float64 `json:"distance_mi,omitempty"`
}

type ListCompaniesResponse struct {
	Companies []CompanyResponse `json:"companies"`
}

func FromCompany(c domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:         c.ID,
		Name:       c.Name,
		Street:     c.Street,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		Lat:        c.Lat,
		Lng:        c.Lng,
	}
}

type SyncResponse struct {
	CompaniesSynced int `json:"companies_synced"`
}

type SyncStatusResponse struct {
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	CompaniesSynced int        `json:"companies_synced"`
	Error           *string    `json:"error,omitempty"`
}
