package handlers

import (
	"net/http"
	"time"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/services"
)

type SummaryHandler struct {
	Service *services.Summaries
}

// Day returns the caller's daily visit recap. The optional date query
// parameter (YYYY-MM-DD) defaults to today.
func (h *SummaryHandler) Day(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.Service.ForDay(r.Context(), auth.UserID(r.Context()), day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.DailySummaryResponse{
		Date:       summary.Day.Format("2006-01-02"),
		Visits:     make([]dto.SummaryVisitResponse, 0, len(summary.Visits)),
		VisitCount: len(summary.Visits),
		TotalMiles: summary.TotalMiles,
	}
	for _, v := range summary.Visits {
		res.Visits = append(res.Visits, dto.SummaryVisitResponse{
			CheckIn:     dto.FromCheckIn(v.CheckIn),
			CompanyName: v.CompanyName,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}
