package scoring

// ChurnRisk is the churn classification of a customer
type ChurnRisk string

const (
	ChurnRiskLow    ChurnRisk = "LOW"
	ChurnRiskMedium ChurnRisk = "MEDIUM"
	ChurnRiskHigh   ChurnRisk = "HIGH"
)

// Valid reports whether r is one of the known levels
func (r ChurnRisk) Valid() bool {
	switch r {
	case ChurnRiskLow, ChurnRiskMedium, ChurnRiskHigh:
		return true
	}
	return false
}

// ClassifyChurnRisk evaluates HIGH first, then MEDIUM; the first match wins
func ClassifyChurnRisk(daysSinceLastOrder, engagementScore int) ChurnRisk {
	if daysSinceLastOrder > 180 && engagementScore < 20 {
		return ChurnRiskHigh
	}
	if daysSinceLastOrder > 90 && engagementScore < 40 {
		return ChurnRiskMedium
	}
	return ChurnRiskLow
}
