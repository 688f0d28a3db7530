package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/callmaker24/segmentation/internal/domain"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new PostgreSQL customer activity repository
func NewActivityRepository(db *sql.DB) domain.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListRecentActivities(ctx context.Context, organizationID, customerID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = domain.RecentActivityLimit
	}

	query := `
		SELECT id, organization_id, customer_id, type, created_at
		FROM customer_activities
		WHERE organization_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, organizationID, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*domain.Activity, 0)
	for rows.Next() {
		activity, err := domain.ScanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return activities, nil
}

func (r *activityRepository) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customer_activities (id, organization_id, customer_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		activity.ID,
		activity.OrganizationID,
		activity.CustomerID,
		string(activity.Type),
		activity.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return &domain.ErrCustomerNotFound{Message: fmt.Sprintf("customer %s not found", activity.CustomerID)}
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}
