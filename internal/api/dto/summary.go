package dto

type SummaryVisitResponse struct {
	CheckIn     CheckInResponse `json:"check_in"`
	CompanyName string          `json:"company_name"`
}

type DailySummaryResponse struct {
	Date       string                 `json:"date"`
	Visits     []SummaryVisitResponse `json:"visits"`
	VisitCount int                    `json:"visit_count"`
	TotalMiles float64                `json:"total_miles"`
}
