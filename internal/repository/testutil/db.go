package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// SetupMockDB creates a mock database connection for testing
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

// CustomerColumns mirrors domain.CustomerColumns as individual names
var CustomerColumns = []string{
	"id", "organization_id", "email", "phone", "first_name", "last_name",
	"total_spent", "order_count", "last_order_at",
	"loyalty_member", "loyalty_points", "loyalty_tier",
	"rfm_recency_days", "rfm_frequency_score", "rfm_monetary_score", "rfm_score",
	"engagement_score", "predicted_ltv", "churn_risk", "segment_tags", "segmentation_updated_at",
	"created_at", "updated_at",
}

// SegmentColumns mirrors domain.SegmentColumns as individual names
var SegmentColumns = []string{
	"id", "organization_id", "name", "description", "segment_type", "is_ai_powered", "auto_update",
	"customer_count", "avg_lifetime_value", "avg_engagement", "last_calculated_at", "created_at", "updated_at",
}

// AddUnscoredCustomerRow appends a customer that has never been segmented
func AddUnscoredCustomerRow(rows *sqlmock.Rows, organizationID, customerID string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		customerID, organizationID, customerID+"@example.com", nil, nil, nil,
		0.0, 0, nil,
		false, 0, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		createdAt, createdAt,
	)
}
