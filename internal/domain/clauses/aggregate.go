package clauses

import "math"

const (
	// UnavoidableFloor is the minimum contract risk once any clause is Unavoidable.
	UnavoidableFloor = 0.91

	// AnomalyThreshold marks a clause as anomalous in RiskCounts.
	AnomalyThreshold = 0.7
)

// Aggregate folds clause records into a ContractRiskSummary. It is pure and
// order independent: anomaly scores are summed as integer hundredths.
func Aggregate(records []ClauseRecord) ContractRiskSummary {
	var (
		counts      RiskCounts
		totalWeight int
		anomalySum  int // hundredths
	)
	for _, c := range records {
		level := ParseRiskLevel(string(c.RiskLevel))
		totalWeight += level.Weight()
		anomalySum += int(math.Round(clamp01(c.AnomalyScore) * 100))
		switch level {
		case RiskMedium:
			counts.Medium++
		case RiskHigh:
			counts.High++
		case RiskUnavoidable:
			counts.Unavoidable++
		default:
			counts.Low++
		}
		if c.AnomalyScore >= AnomalyThreshold {
			counts.Anomalies++
		}
		counts.Total++
	}

	if counts.Total == 0 {
		return ContractRiskSummary{}
	}

	n := float64(counts.Total)
	risk := float64(totalWeight) / (n * maxWeight)
	if counts.Unavoidable > 0 && risk < UnavoidableFloor {
		risk = UnavoidableFloor
	}

	severe := float64(counts.High+counts.Unavoidable) / n
	dispute := clamp01(0.6*risk + 0.4*severe)

	return ContractRiskSummary{
		ContractRiskScore: round2(risk),
		CompositeScore:    round2(1 - risk),
		AvgAnomalyScore:   math.Round(float64(anomalySum)/n) / 100,
		DisputeLikelihood: round2(dispute),
		Counts:            counts,
	}
}
