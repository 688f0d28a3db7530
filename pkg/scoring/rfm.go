// Package scoring computes the customer segmentation metrics: RFM sub-scores,
// engagement score, predicted lifetime value, churn risk and segment tags.
//
// Every function is pure. Callers pass the reference time explicitly so that
// results are reproducible.
package scoring

import (
	"fmt"
	"time"
)

// NoOrderRecencyDays is reported as days since last order for customers that
// never ordered.
const NoOrderRecencyDays = 999

// MinScore and MaxScore bound every RFM sub-score
const (
	MinScore = 1
	MaxScore = 5
)

// RFMScores holds the three 1-5 sub-scores plus the raw recency in days
type RFMScores struct {
	Recency     int `json:"recency"`
	Frequency   int `json:"frequency"`
	Monetary    int `json:"monetary"`
	RecencyDays int `json:"recency_days"`
}

// String concatenates the sub-scores in R, F, M order, e.g. "455"
func (s RFMScores) String() string {
	return fmt.Sprintf("%d%d%d", s.Recency, s.Frequency, s.Monetary)
}

// Average returns the mean of the three sub-scores
func (s RFMScores) Average() float64 {
	return float64(s.Recency+s.Frequency+s.Monetary) / 3
}

// DaysSinceLastOrder returns whole days elapsed between lastOrderAt and now.
// A nil lastOrderAt yields NoOrderRecencyDays; future timestamps yield 0.
func DaysSinceLastOrder(lastOrderAt *time.Time, now time.Time) int {
	if lastOrderAt == nil {
		return NoOrderRecencyDays
	}
	days := int(now.Sub(*lastOrderAt) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// RecencyScore maps days since the last order onto 1-5
func RecencyScore(lastOrderAt *time.Time, now time.Time) int {
	if lastOrderAt == nil {
		return MinScore
	}
	return recencyScoreFromDays(DaysSinceLastOrder(lastOrderAt, now))
}

func recencyScoreFromDays(days int) int {
	switch {
	case days <= 30:
		return 5
	case days <= 90:
		return 4
	case days <= 180:
		return 3
	case days <= 365:
		return 2
	default:
		return 1
	}
}

// FrequencyScore maps the order count onto 1-5
func FrequencyScore(orderCount int) int {
	switch {
	case orderCount >= 20:
		return 5
	case orderCount >= 10:
		return 4
	case orderCount >= 5:
		return 3
	case orderCount >= 2:
		return 2
	default:
		return 1
	}
}

// MonetaryScore maps the total amount spent onto 1-5
func MonetaryScore(totalSpent float64) int {
	switch {
	case totalSpent >= 1000:
		return 5
	case totalSpent >= 500:
		return 4
	case totalSpent >= 200:
		return 3
	case totalSpent >= 50:
		return 2
	default:
		return 1
	}
}

// CalculateRFM computes all RFM sub-scores for a customer's commerce facts
func CalculateRFM(lastOrderAt *time.Time, orderCount int, totalSpent float64, now time.Time) RFMScores {
	return RFMScores{
		Recency:     RecencyScore(lastOrderAt, now),
		Frequency:   FrequencyScore(orderCount),
		Monetary:    MonetaryScore(totalSpent),
		RecencyDays: DaysSinceLastOrder(lastOrderAt, now),
	}
}
