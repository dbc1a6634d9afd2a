package clauses

import "math"

// RiskLevel enum
type RiskLevel string

const (
	RiskLow         RiskLevel = "Low"
	RiskMedium      RiskLevel = "Medium"
	RiskHigh        RiskLevel = "High"
	RiskUnavoidable RiskLevel = "Unavoidable"
)

// maxWeight is the weight of the most severe level.
const maxWeight = 7

// ParseRiskLevel maps a model label to a RiskLevel. Matching is case-sensitive;
// anything unknown becomes Low.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskUnavoidable:
		return RiskLevel(s)
	default:
		return RiskLow
	}
}

// Weight returns the aggregation weight of the level.
func (l RiskLevel) Weight() int {
	switch l {
	case RiskMedium:
		return 3
	case RiskHigh:
		return 5
	case RiskUnavoidable:
		return maxWeight
	default:
		return 1
	}
}

// Band is the display label, e.g. "High Risk".
func (l RiskLevel) Band() string {
	return string(ParseRiskLevel(string(l))) + " Risk"
}

// ClauseTypes is the taxonomy the prompt asks the model to choose from.
var ClauseTypes = []string{
	"Consideration & Payment",
	"Confidentiality",
	"Indemnification & Liability",
	"Dispute Resolution & Jurisdiction",
	"Term & Termination",
	"Intellectual Property",
	"Governing Law",
	"Force Majeure",
	"Data Protection",
	"Warranties & Representations",
	"Assignment",
	"Notices",
	"General",
}

// ClauseRecord is one normalized clause. RiskBand is derived from RiskLevel
// for display only; aggregation reads RiskLevel.
type ClauseRecord struct {
	Text         string    `json:"text"`
	ClauseType   string    `json:"clause_type"`
	RiskLevel    RiskLevel `json:"risk_level"`
	RiskBand     string    `json:"risk_band"`
	AnomalyScore float64   `json:"anomaly_score"`
	Suggestion   string    `json:"improvement_suggestion,omitempty"`
}

// RiskCounts value object
type RiskCounts struct {
	Low         int `json:"low"`
	Medium      int `json:"medium"`
	High        int `json:"high"`
	Unavoidable int `json:"unavoidable"`
	Anomalies   int `json:"anomalies"`
	Total       int `json:"total"`
}

// ContractRiskSummary is computed per request and never mutated.
type ContractRiskSummary struct {
	ContractRiskScore float64    `json:"contract_risk_score"`
	CompositeScore    float64    `json:"composite_score"`
	AvgAnomalyScore   float64    `json:"avg_anomaly_score"`
	DisputeLikelihood float64    `json:"dispute_likelihood"`
	Counts            RiskCounts `json:"counts"`
}

// Source of a result
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// DocumentAnalysisResult is the multi-block review. BlockAnalyses always has
// one entry per input block, in input order.
type DocumentAnalysisResult struct {
	OverallAnalysis string   `json:"overall_analysis"`
	BlockAnalyses   []string `json:"block_analyses"`
	Suggestions     []string `json:"suggestions"`
	Source          Source   `json:"source"`
}

// DraftOption is one generated clause alternative.
type DraftOption struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DraftOptions is the pair returned by clause generation.
type DraftOptions struct {
	OptionA DraftOption `json:"option_a"`
	OptionB DraftOption `json:"option_b"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
