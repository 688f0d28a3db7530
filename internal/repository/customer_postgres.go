package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.opencensus.io/trace"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/scoring"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(db *sql.DB) domain.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetCustomer(ctx context.Context, organizationID, customerID string) (*domain.Customer, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "CustomerRepository", "GetCustomer")
	defer span.End()

	span.AddAttributes(
		trace.StringAttribute("organization.id", organizationID),
		trace.StringAttribute("customer.id", customerID),
	)

	query := `SELECT ` + domain.CustomerColumns + `
		FROM customers
		WHERE organization_id = $1 AND id = $2`

	row := r.db.QueryRowContext(ctx, query, organizationID, customerID)
	customer, err := domain.ScanCustomer(row)
	if err == sql.ErrNoRows {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeNotFound,
			Message: "customer not found",
		})
		return nil, &domain.ErrCustomerNotFound{Message: fmt.Sprintf("customer %s not found", customerID)}
	}
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

func (r *customerRepository) ListCustomers(ctx context.Context, req *domain.ListCustomersRequest) (*domain.ListCustomersResponse, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	where := sq.And{sq.Eq{"organization_id": req.OrganizationID}}
	if req.ChurnRisk != "" {
		where = append(where, sq.Eq{"churn_risk": string(req.ChurnRisk)})
	}
	if req.Tag != "" {
		where = append(where, sq.Expr("? = ANY(segment_tags)", req.Tag))
	}
	if req.LoyaltyTier != "" {
		where = append(where, sq.Eq{"loyalty_tier": string(req.LoyaltyTier)})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("customers").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	query, args, err := psql.Select(domain.CustomerColumns).
		From("customers").
		Where(where).
		OrderBy("id ASC").
		Limit(uint64(req.Limit)).
		Offset(uint64(req.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		customer, err := domain.ScanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}

	return &domain.ListCustomersResponse{
		Customers:  customers,
		TotalCount: total,
	}, nil
}

func (r *customerRepository) ListCustomerIDs(ctx context.Context, organizationID string) ([]string, error) {
	query := `SELECT id FROM customers WHERE organization_id = $1 ORDER BY id`
	return r.queryStrings(ctx, "customer ids", query, organizationID)
}

func (r *customerRepository) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT organization_id FROM customers ORDER BY organization_id`
	return r.queryStrings(ctx, "organization ids", query)
}

func (r *customerRepository) queryStrings(ctx context.Context, what, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}
	return values, nil
}

// UpsertCustomer never touches the segmentation columns
func (r *customerRepository) UpsertCustomer(ctx context.Context, customer *domain.Customer) (bool, error) {
	now := time.Now().UTC()

	var lastOrderAt interface{}
	if customer.LastOrderAt != nil {
		lastOrderAt = customer.LastOrderAt.UTC()
	}

	query := `
		INSERT INTO customers (
			id, organization_id, email, phone, first_name, last_name,
			total_spent, order_count, last_order_at,
			loyalty_member, loyalty_points, loyalty_tier,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (organization_id, id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			total_spent = EXCLUDED.total_spent,
			order_count = EXCLUDED.order_count,
			last_order_at = EXCLUDED.last_order_at,
			loyalty_member = EXCLUDED.loyalty_member,
			loyalty_points = EXCLUDED.loyalty_points,
			loyalty_tier = EXCLUDED.loyalty_tier,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted, created_at, updated_at`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		customer.ID,
		customer.OrganizationID,
		nullString(customer.Email),
		nullString(customer.Phone),
		nullString(customer.FirstName),
		nullString(customer.LastName),
		customer.TotalSpent,
		customer.OrderCount,
		lastOrderAt,
		customer.LoyaltyMember,
		customer.LoyaltyPoints,
		nullString(string(customer.LoyaltyTier)),
		now,
	).Scan(&inserted, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert customer: %w", err)
	}

	return inserted, nil
}

// UpdateSegmentation writes every snapshot column in one statement
func (r *customerRepository) UpdateSegmentation(ctx context.Context, organizationID, customerID string, snapshot *domain.SegmentationSnapshot) error {
	ctx, span := tracing.StartServiceSpan(ctx, "CustomerRepository", "UpdateSegmentation")
	defer span.End()

	query := `
		UPDATE customers SET
			rfm_recency_days = $3,
			rfm_frequency_score = $4,
			rfm_monetary_score = $5,
			rfm_score = $6,
			engagement_score = $7,
			predicted_ltv = $8,
			churn_risk = $9,
			segment_tags = $10,
			segmentation_updated_at = $11
		WHERE organization_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query,
		organizationID,
		customerID,
		snapshot.RFMRecencyDays,
		snapshot.RFMFrequencyScore,
		snapshot.RFMMonetaryScore,
		snapshot.RFMScore,
		snapshot.EngagementScore,
		snapshot.PredictedLTV,
		string(snapshot.ChurnRisk),
		pq.Array(snapshot.SegmentTags),
		snapshot.CalculatedAt,
	)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return fmt.Errorf("failed to update customer segmentation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrCustomerNotFound{Message: fmt.Sprintf("customer %s not found", customerID)}
	}

	return nil
}

func (r *customerRepository) ListSegmentationProfiles(ctx context.Context, organizationID string) ([]*domain.SegmentationProfile, error) {
	query := `
		SELECT id, segment_tags, predicted_ltv, engagement_score
		FROM customers
		WHERE organization_id = $1 AND segmentation_updated_at IS NOT NULL
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segmentation profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.SegmentationProfile, 0)
	for rows.Next() {
		var (
			id         string
			tags       domain.StringArray
			ltv        sql.NullFloat64
			engagement sql.NullInt64
		)
		if err := rows.Scan(&id, &tags, &ltv, &engagement); err != nil {
			return nil, fmt.Errorf("failed to scan segmentation profile: %w", err)
		}
		profiles = append(profiles, &domain.SegmentationProfile{
			CustomerID:      id,
			Tags:            scoring.NewTagSet(tags...),
			PredictedLTV:    ltv.Float64,
			EngagementScore: int(engagement.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segmentation profiles: %w", err)
	}

	return profiles, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
