package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_ChampionCustomer(t *testing.T) {
	facts := CustomerFacts{TotalSpent: 1500, OrderCount: 25, LastOrderAt: daysAgo(10)}
	result := Evaluate(facts, ActivityCounts{Purchases: 5, EmailOpens: 10, EmailClicks: 2}, testNow)

	assert.Equal(t, "555", result.RFM.String())
	assert.Equal(t, 55, result.EngagementScore)
	assert.Equal(t, 3000.0, result.PredictedLTV)
	assert.Equal(t, ChurnRiskLow, result.ChurnRisk)
	for _, tag := range []string{TagChampion, TagHighValue, TagFrequentBuyer, TagRecentCustomer, TagModeratelyEngaged} {
		assert.True(t, result.Tags.Contains(tag), tag)
	}
	assert.False(t, result.Tags.Contains(TagNewCustomer))
}

func TestEvaluate_CustomerWithoutHistory(t *testing.T) {
	result := Evaluate(CustomerFacts{}, ActivityCounts{}, testNow)

	assert.Equal(t, 1, result.RFM.Recency)
	assert.Equal(t, 1, result.RFM.Frequency)
	assert.Equal(t, 1, result.RFM.Monetary)
	assert.Equal(t, NoOrderRecencyDays, result.RFM.RecencyDays)
	assert.Equal(t, 0, result.EngagementScore)
	assert.Equal(t, 0.0, result.PredictedLTV)
	assert.Equal(t, ChurnRiskHigh, result.ChurnRisk)
	assert.ElementsMatch(t,
		[]string{TagLowValue, TagDisengaged, TagNewCustomer, TagAtRisk, TagDormant},
		result.Tags.Sorted(),
	)
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	facts := CustomerFacts{TotalSpent: 640, OrderCount: 7, LastOrderAt: daysAgo(120), LoyaltyMember: true, LoyaltyPoints: 250, LoyaltyTier: "PLATINUM"}
	counts := ActivityCounts{EmailOpens: 4, SMSReceived: 1}

	first := Evaluate(facts, counts, testNow)
	second := Evaluate(facts, counts, testNow)
	assert.Equal(t, first, second)
	assert.True(t, first.Tags.Contains(TagVIP))
}
