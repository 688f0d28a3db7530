package scoring

import "time"

// CustomerFacts are the raw commerce and loyalty attributes of a customer
type CustomerFacts struct {
	TotalSpent    float64
	OrderCount    int
	LastOrderAt   *time.Time
	LoyaltyMember bool
	LoyaltyPoints int
	LoyaltyTier   string
}

// Result is the full set of computed segmentation metrics
type Result struct {
	RFM             RFMScores
	EngagementScore int
	PredictedLTV    float64
	ChurnRisk       ChurnRisk
	Tags            TagSet
}

// Evaluate runs every calculator and the tag generator for one customer
func Evaluate(facts CustomerFacts, counts ActivityCounts, now time.Time) Result {
	rfm := CalculateRFM(facts.LastOrderAt, facts.OrderCount, facts.TotalSpent, now)
	engagement := EngagementScore(counts, Loyalty{Member: facts.LoyaltyMember, Points: facts.LoyaltyPoints})
	churn := ClassifyChurnRisk(rfm.RecencyDays, engagement)

	return Result{
		RFM:             rfm,
		EngagementScore: engagement,
		PredictedLTV:    PredictedLTV(facts.TotalSpent, rfm),
		ChurnRisk:       churn,
		Tags: GenerateTags(TagInput{
			TotalSpent:      facts.TotalSpent,
			OrderCount:      facts.OrderCount,
			LoyaltyMember:   facts.LoyaltyMember,
			LoyaltyTier:     facts.LoyaltyTier,
			RFM:             rfm,
			EngagementScore: engagement,
			ChurnRisk:       churn,
		}),
	}
}
