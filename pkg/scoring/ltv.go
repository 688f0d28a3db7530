package scoring

import "math"

// PredictedLTV projects lifetime value from the amount spent so far, grown by
// the customer's average RFM score: totalSpent * (1 + avg(R,F,M)/5), rounded.
func PredictedLTV(totalSpent float64, rfm RFMScores) float64 {
	if totalSpent <= 0 {
		return 0
	}
	growthFactor := 1 + rfm.Average()/5
	return math.Round(totalSpent * growthFactor)
}
