package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opencensus.io/trace"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// segmentRepository implements domain.SegmentRepository for PostgreSQL
type segmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a new PostgreSQL segment repository
func NewSegmentRepository(db *sql.DB) domain.SegmentRepository {
	return &segmentRepository{db: db}
}

// WithTransaction executes a function within a transaction
func (r *segmentRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer rollback - this will be a no-op if we successfully commit
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SaveAssignment upserts the AI segment keyed by (organization_id, segment_type),
// replaces its membership and stores its stats atomically
func (r *segmentRepository) SaveAssignment(ctx context.Context, assignment *domain.SegmentAssignment) (*domain.Segment, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentRepository", "SaveAssignment")
	defer span.End()

	span.AddAttributes(
		trace.StringAttribute("organization.id", assignment.OrganizationID),
		trace.StringAttribute("segment.type", assignment.Definition.SegmentType),
		trace.Int64Attribute("segment.customer_count", int64(assignment.Stats.CustomerCount)),
	)

	var segment *domain.Segment
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		upsertQuery := `
			INSERT INTO segments (
				id, organization_id, name, description, segment_type, is_ai_powered, auto_update,
				customer_count, avg_lifetime_value, avg_engagement, last_calculated_at, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, TRUE, TRUE, $6, $7, $8, $9, $9, $9)
			ON CONFLICT (organization_id, segment_type) WHERE is_ai_powered DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				customer_count = EXCLUDED.customer_count,
				avg_lifetime_value = EXCLUDED.avg_lifetime_value,
				avg_engagement = EXCLUDED.avg_engagement,
				last_calculated_at = EXCLUDED.last_calculated_at,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + domain.SegmentColumns

		row := tx.QueryRowContext(ctx, upsertQuery,
			uuid.New().String(),
			assignment.OrganizationID,
			assignment.Definition.Name,
			assignment.Definition.Description,
			assignment.Definition.SegmentType,
			assignment.Stats.CustomerCount,
			assignment.Stats.AvgLTV,
			assignment.Stats.AvgEngagement,
			assignment.CalculatedAt,
		)
		var err error
		segment, err = domain.ScanSegment(row)
		if err != nil {
			return fmt.Errorf("failed to upsert segment: %w", err)
		}

		// Membership is replaced, never patched
		if _, err := tx.ExecContext(ctx, `DELETE FROM segment_customers WHERE segment_id = $1`, segment.ID); err != nil {
			return fmt.Errorf("failed to clear segment membership: %w", err)
		}

		if len(assignment.CustomerIDs) == 0 {
			return nil
		}

		insertQuery := `
			INSERT INTO segment_customers (segment_id, customer_id, added_at)
			SELECT $1, unnest($2::text[]), $3`
		if _, err := tx.ExecContext(ctx, insertQuery, segment.ID, pq.Array(assignment.CustomerIDs), assignment.CalculatedAt); err != nil {
			return fmt.Errorf("failed to insert segment membership: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	return segment, nil
}

func (r *segmentRepository) GetSegmentByID(ctx context.Context, organizationID, segmentID string) (*domain.Segment, error) {
	query := `SELECT ` + domain.SegmentColumns + `
		FROM segments
		WHERE organization_id = $1 AND id = $2`

	segment, err := domain.ScanSegment(r.db.QueryRowContext(ctx, query, organizationID, segmentID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrSegmentNotFound{Message: fmt.Sprintf("segment %s not found", segmentID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}

	return segment, nil
}

func (r *segmentRepository) ListSegments(ctx context.Context, organizationID string) ([]*domain.Segment, error) {
	query := `SELECT ` + domain.SegmentColumns + `
		FROM segments
		WHERE organization_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	segments := make([]*domain.Segment, 0)
	for rows.Next() {
		segment, err := domain.ScanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment rows: %w", err)
	}

	return segments, nil
}

func (r *segmentRepository) ListSegmentCustomers(ctx context.Context, organizationID, segmentID string, limit, offset int) ([]*domain.Customer, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM segment_customers WHERE segment_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, segmentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count segment customers: %w", err)
	}

	query := `SELECT ` + domain.CustomerColumns + `
		FROM customers
		WHERE organization_id = $1
			AND id IN (SELECT customer_id FROM segment_customers WHERE segment_id = $2)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, organizationID, segmentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list segment customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		customer, err := domain.ScanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customer rows: %w", err)
	}

	return customers, total, nil
}
