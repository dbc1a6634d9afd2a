package reports

import "time"

// ReportID identifier type
type ReportID string

// Report is a stored full-analysis result. Result holds the JSON response
// returned to the client; the scalar columns exist for listing.
type Report struct {
	ID                ReportID  `json:"id"`
	Language          string    `json:"language"`
	Source            string    `json:"source"`
	ClauseCount       int       `json:"clause_count"`
	ContractRiskScore float64   `json:"contract_risk_score"`
	CompositeScore    float64   `json:"composite_score"`
	Result            string    `json:"result"`
	CreatedAt         time.Time `json:"created_at"`
}
