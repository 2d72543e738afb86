package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/geo"
	"fieldroute-service/internal/ports"
)

type CompanyHandler struct {
	Companies ports.CompanyDirectory
	Users     ports.UserRepository
}

// List returns the company book for the map view. With lat, lng, and
// radius_mi it narrows to companies within the radius, nearest first; q
// filters by case-insensitive name substring; owner=me keeps only companies
// assigned to the caller's CRM owner id. Companies without coordinates only
// appear in listings without a radius filter.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Companies.ListCompanies(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if r.URL.Query().Get("owner") == "me" {
		companies, err = h.ownedBy(r, companies)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		q = strings.ToLower(q)
		filtered := companies[:0]
		for _, c := range companies {
			if strings.Contains(strings.ToLower(c.Name), q) {
				filtered = append(filtered, c)
			}
		}
		companies = filtered
	}

	res := dto.ListCompaniesResponse{Companies: make([]dto.CompanyResponse, 0, len(companies))}

	center, radiusMi, ok, err := radiusQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if ok {
		for _, cd := range geo.FilterByRadius(companies, center, radiusMi) {
			cr := dto.FromCompany(cd.Company)
			dist := cd.DistanceMi
			cr.DistanceMi = &dist
			res.Companies = append(res.Companies, cr)
		}
	} else {
		for _, c := range companies {
			res.Companies = append(res.Companies, dto.FromCompany(c))
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}

// ownedBy keeps the companies whose CRM owner matches the caller's. A user
// without a CRM owner id owns nothing.
func (h *CompanyHandler) ownedBy(r *http.Request, companies []domain.Company) ([]domain.Company, error) {
	user, err := h.Users.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		return nil, err
	}
	if user.CRMOwnerID == nil {
		return nil, nil
	}

	owned := companies[:0]
	for _, c := range companies {
		if c.OwnerID != nil && *c.OwnerID == *user.CRMOwnerID {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

// radiusQuery parses the lat/lng/radius_mi triple. All three must be present
// together.
func radiusQuery(r *http.Request) (domain.Coordinates, float64, bool, error) {
	latS := r.URL.Query().Get("lat")
	lngS := r.URL.Query().Get("lng")
	radS := r.URL.Query().Get("radius_mi")
	if latS == "" && lngS == "" && radS == "" {
		return domain.Coordinates{}, 0, false, nil
	}

	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return domain.Coordinates{}, 0, false, errBadQuery("lat")
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil {
		return domain.Coordinates{}, 0, false, errBadQuery("lng")
	}
	radius, err := strconv.ParseFloat(radS, 64)
	if err != nil || radius <= 0 {
		return domain.Coordinates{}, 0, false, errBadQuery("radius_mi")
	}

	return domain.Coordinates{Lat: lat, Lng: lng}, radius, true, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errBadQuery(param string) error {
	return queryError(param + " must be a valid number")
}
