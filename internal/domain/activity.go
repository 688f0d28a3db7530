package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/callmaker24/segmentation/pkg/scoring"
)

//go:generate mockgen -destination mocks/mock_activity_repository.go -package mocks github.com/callmaker24/segmentation/internal/domain ActivityRepository

// RecentActivityLimit is the number of most recent activities the scoring pass reads
const RecentActivityLimit = 100

// ActivityType is the kind of customer interaction recorded
type ActivityType string

const (
	ActivityTypeEmailSent             ActivityType = "EMAIL_SENT"
	ActivityTypeEmailOpened           ActivityType = "EMAIL_OPENED"
	ActivityTypeEmailClicked          ActivityType = "EMAIL_CLICKED"
	ActivityTypeSMSSent               ActivityType = "SMS_SENT"
	ActivityTypeSMSReceived           ActivityType = "SMS_RECEIVED"
	ActivityTypePurchase              ActivityType = "PURCHASE"
	ActivityTypeChatStarted           ActivityType = "CHAT_STARTED"
	ActivityTypePageView              ActivityType = "PAGE_VIEW"
	ActivityTypeLoyaltyPointsEarned   ActivityType = "LOYALTY_POINTS_EARNED"
	ActivityTypeLoyaltyRewardRedeemed ActivityType = "LOYALTY_REWARD_REDEEMED"
)

var validActivityTypes = map[ActivityType]struct{}{
	ActivityTypeEmailSent:             {},
	ActivityTypeEmailOpened:           {},
	ActivityTypeEmailClicked:          {},
	ActivityTypeSMSSent:               {},
	ActivityTypeSMSReceived:           {},
	ActivityTypePurchase:              {},
	ActivityTypeChatStarted:           {},
	ActivityTypePageView:              {},
	ActivityTypeLoyaltyPointsEarned:   {},
	ActivityTypeLoyaltyRewardRedeemed: {},
}

// Valid reports whether t belongs to the activity vocabulary
func (t ActivityType) Valid() bool {
	_, ok := validActivityTypes[t]
	return ok
}

// Activity is one timestamped interaction of a customer
type Activity struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	CustomerID     string       `json:"customer_id"`
	Type           ActivityType `json:"type"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (a *Activity) Validate() error {
	if a.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if a.CustomerID == "" {
		return fmt.Errorf("customer_id is required")
	}
	if a.ID != "" && !govalidator.IsUUID(a.ID) {
		return fmt.Errorf("id must be a valid UUID")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("invalid activity type: %s", a.Type)
	}
	return nil
}

// ScanActivity scans a row of id, organization_id, customer_id, type, created_at
func ScanActivity(scanner interface {
	Scan(dest ...interface{}) error
}) (*Activity, error) {
	var a Activity
	if err := scanner.Scan(&a.ID, &a.OrganizationID, &a.CustomerID, &a.Type, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CountEngagementActivities tallies the activity types that feed the engagement score.
// Types without a weight are ignored.
func CountEngagementActivities(activities []*Activity) scoring.ActivityCounts {
	var counts scoring.ActivityCounts
	for _, a := range activities {
		if a == nil {
			continue
		}
		switch a.Type {
		case ActivityTypeEmailOpened:
			counts.EmailOpens++
		case ActivityTypeEmailClicked:
			counts.EmailClicks++
		case ActivityTypeSMSReceived:
			counts.SMSReceived++
		case ActivityTypePurchase:
			counts.Purchases++
		case ActivityTypeChatStarted:
			counts.ChatSessions++
		}
	}
	return counts
}

type CreateActivityRequest struct {
	OrganizationID string       `json:"organization_id"`
	CustomerID     string       `json:"customer_id"`
	Type           ActivityType `json:"type"`
	CreatedAt      *time.Time   `json:"created_at,omitempty"`
}

// Validate converts the request into an activity; created_at defaults to now
func (r *CreateActivityRequest) Validate(now time.Time) (*Activity, error) {
	activity := &Activity{
		OrganizationID: r.OrganizationID,
		CustomerID:     r.CustomerID,
		Type:           r.Type,
		CreatedAt:      now.UTC(),
	}
	if r.CreatedAt != nil {
		activity.CreatedAt = r.CreatedAt.UTC()
	}
	if err := activity.Validate(); err != nil {
		return nil, err
	}
	return activity, nil
}

type ActivityRepository interface {
	// ListRecentActivities returns up to limit activities of a customer, newest first
	ListRecentActivities(ctx context.Context, organizationID, customerID string, limit int) ([]*Activity, error)

	// CreateActivity stores a new activity
	CreateActivity(ctx context.Context, activity *Activity) error
}
