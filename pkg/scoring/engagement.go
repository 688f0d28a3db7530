package scoring

// MaxEngagementScore is the upper bound of EngagementScore
const MaxEngagementScore = 100

// EngagementWeight describes how one activity category contributes to the score
type EngagementWeight struct {
	PerEvent int
	Cap      int
}

func (w EngagementWeight) contribution(count int) int {
	if count <= 0 {
		return 0
	}
	return min(count*w.PerEvent, w.Cap)
}

// Category weights. The caps sum to 80; the loyalty bonus adds at most 20.
var (
	EmailOpenWeight  = EngagementWeight{PerEvent: 2, Cap: 15}
	EmailClickWeight = EngagementWeight{PerEvent: 5, Cap: 10}
	SMSWeight        = EngagementWeight{PerEvent: 3, Cap: 15}
	PurchaseWeight   = EngagementWeight{PerEvent: 6, Cap: 30}
	ChatWeight       = EngagementWeight{PerEvent: 2, Cap: 10}
)

// Loyalty bonus points
const (
	LoyaltyMemberBonus     = 10
	LoyaltyPointsBonus     = 5
	LoyaltyPointsThreshold = 100
	LoyaltyHighBonus       = 5
	LoyaltyHighThreshold   = 500
)

// ActivityCounts tallies the activity categories that drive engagement
type ActivityCounts struct {
	EmailOpens   int
	EmailClicks  int
	SMSReceived  int
	Purchases    int
	ChatSessions int
}

// Loyalty carries the loyalty facts used for the engagement bonus
type Loyalty struct {
	Member bool
	Points int
}

// LoyaltyBonus returns the additive loyalty contribution (0-20)
func LoyaltyBonus(l Loyalty) int {
	bonus := 0
	if l.Member {
		bonus += LoyaltyMemberBonus
	}
	if l.Points > LoyaltyPointsThreshold {
		bonus += LoyaltyPointsBonus
	}
	if l.Points > LoyaltyHighThreshold {
		bonus += LoyaltyHighBonus
	}
	return bonus
}

// EngagementScore returns a 0-100 score. Each category is capped before
// summing and the total is capped again.
func EngagementScore(counts ActivityCounts, loyalty Loyalty) int {
	score := EmailOpenWeight.contribution(counts.EmailOpens) +
		EmailClickWeight.contribution(counts.EmailClicks) +
		SMSWeight.contribution(counts.SMSReceived) +
		PurchaseWeight.contribution(counts.Purchases) +
		LoyaltyBonus(loyalty) +
		ChatWeight.contribution(counts.ChatSessions)

	return min(score, MaxEngagementScore)
}
