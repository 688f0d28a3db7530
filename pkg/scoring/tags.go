package scoring

import (
	"sort"
	"strings"
)

// Segment tags produced by GenerateTags
const (
	TagHighValue         = "HIGH_VALUE"
	TagMediumValue       = "MEDIUM_VALUE"
	TagLowValue          = "LOW_VALUE"
	TagHighlyEngaged     = "HIGHLY_ENGAGED"
	TagModeratelyEngaged = "MODERATELY_ENGAGED"
	TagDisengaged        = "DISENGAGED"
	TagFrequentBuyer     = "FREQUENT_BUYER"
	TagOccasionalBuyer   = "OCCASIONAL_BUYER"
	TagRecentCustomer    = "RECENT_CUSTOMER"
	TagDormant           = "DORMANT"
	TagAtRisk            = "AT_RISK"
	TagChampion          = "CHAMPION"
	TagNewCustomer       = "NEW_CUSTOMER"
	TagLoyaltyMember     = "LOYALTY_MEMBER"
	TagVIP               = "VIP"
)

// TagSet is an unordered set of segment tags
type TagSet map[string]struct{}

// NewTagSet builds a set from tags, ignoring blanks and duplicates
func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, len(tags))
	for _, tag := range tags {
		set.Add(tag)
	}
	return set
}

// Add inserts tag; blank tags are ignored
func (s TagSet) Add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	s[tag] = struct{}{}
}

// Contains reports whether tag is in the set
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Intersects reports whether the two sets share at least one tag
func (s TagSet) Intersects(other TagSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for tag := range small {
		if large.Contains(tag) {
			return true
		}
	}
	return false
}

// Sorted returns the tags in lexical order, suitable for persistence
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// LoyaltyTier values that qualify a loyalty member as VIP
const (
	LoyaltyTierPlatinum = "PLATINUM"
	LoyaltyTierDiamond  = "DIAMOND"
)

// TagInput gathers the facts GenerateTags looks at
type TagInput struct {
	TotalSpent      float64
	OrderCount      int
	LoyaltyMember   bool
	LoyaltyTier     string
	RFM             RFMScores
	EngagementScore int
	ChurnRisk       ChurnRisk
}

// GenerateTags derives the categorical segment tags of a customer. Every rule
// is evaluated independently.
func GenerateTags(in TagInput) TagSet {
	tags := make(TagSet)

	switch {
	case in.TotalSpent >= 1000:
		tags.Add(TagHighValue)
	case in.TotalSpent >= 500:
		tags.Add(TagMediumValue)
	case in.TotalSpent < 50:
		tags.Add(TagLowValue)
	}

	switch {
	case in.EngagementScore >= 70:
		tags.Add(TagHighlyEngaged)
	case in.EngagementScore >= 40:
		tags.Add(TagModeratelyEngaged)
	case in.EngagementScore < 20:
		tags.Add(TagDisengaged)
	}

	if in.RFM.Frequency >= 4 {
		tags.Add(TagFrequentBuyer)
	} else if in.RFM.Frequency <= 2 && in.OrderCount > 0 {
		tags.Add(TagOccasionalBuyer)
	}

	if in.RFM.Recency >= 4 {
		tags.Add(TagRecentCustomer)
	} else if in.RFM.Recency <= 2 {
		tags.Add(TagDormant)
	}

	if in.ChurnRisk == ChurnRiskHigh {
		tags.Add(TagAtRisk)
	}

	if in.RFM.Recency >= 4 && in.RFM.Frequency >= 4 && in.RFM.Monetary >= 4 {
		tags.Add(TagChampion)
	}

	if in.OrderCount <= 1 {
		tags.Add(TagNewCustomer)
	}

	if in.LoyaltyMember {
		tags.Add(TagLoyaltyMember)
		tier := strings.ToUpper(in.LoyaltyTier)
		if tier == LoyaltyTierDiamond || tier == LoyaltyTierPlatinum {
			tags.Add(TagVIP)
		}
	}

	return tags
}
