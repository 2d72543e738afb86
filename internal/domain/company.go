package domain

import (
	"strings"
	"time"
)

// A CRM company that can appear as a route stop.
// Lat/Lng stay nil until the sync pipeline has geocoded the address;
// companies without coordinates are never routable.
type Company struct {
	ID           string
	Name         string
	Street       *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string
	OwnerID      *string
	Lat          *float64
	Lng          *float64
	LastSyncedAt time.Time
	Deleted      bool
}

// HasCoordinates reports whether the company resolved to a map position.
func (c Company) HasCoordinates() bool { return c.Lat != nil && c.Lng != nil }

func (c Company) Coordinates() Coordinates {
	if !c.HasCoordinates() {
		return Coordinates{}
	}
	return Coordinates{Lat: *c.Lat, Lng: *c.Lng}
}

// Address joins the postal parts that are present into one geocodable line.
func (c Company) Address() string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{c.Street, c.City, c.State, c.PostalCode} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

// CompanyWithDistance pairs a company with its distance from a query center.
type CompanyWithDistance struct {
	Company
	DistanceMi float64
}
