package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/tidwall/gjson"

	"github.com/callmaker24/segmentation/pkg/scoring"
)

//go:generate mockgen -destination mocks/mock_customer_repository.go -package mocks github.com/callmaker24/segmentation/internal/domain CustomerRepository
//go:generate mockgen -destination mocks/mock_customer_service.go -package mocks github.com/callmaker24/segmentation/internal/domain CustomerService

// LoyaltyTier is either one of the built-in tiers or an organization defined tier
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "BRONZE"
	LoyaltyTierSilver   LoyaltyTier = "SILVER"
	LoyaltyTierGold     LoyaltyTier = "GOLD"
	LoyaltyTierPlatinum LoyaltyTier = scoring.LoyaltyTierPlatinum
	LoyaltyTierDiamond  LoyaltyTier = scoring.LoyaltyTierDiamond
)

// Customer is a shopper belonging to one organization
type Customer struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`

	// Commerce facts
	TotalSpent  float64    `json:"total_spent"`
	OrderCount  int        `json:"order_count"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`

	// Loyalty facts
	LoyaltyMember bool        `json:"loyalty_member"`
	LoyaltyPoints int         `json:"loyalty_points"`
	LoyaltyTier   LoyaltyTier `json:"loyalty_tier,omitempty"`

	// Segmentation is nil until the customer has been scored once
	Segmentation *SegmentationSnapshot `json:"segmentation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the identity, commerce and loyalty fields
func (c *Customer) Validate() error {
	if c.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(c.ID) > 64 {
		return fmt.Errorf("id length must be between 1 and 64")
	}
	if c.Email != "" && !govalidator.IsEmail(c.Email) {
		return fmt.Errorf("invalid email format")
	}
	if c.TotalSpent < 0 {
		return fmt.Errorf("total_spent must be >= 0")
	}
	if c.OrderCount < 0 {
		return fmt.Errorf("order_count must be >= 0")
	}
	if c.LoyaltyPoints < 0 {
		return fmt.Errorf("loyalty_points must be >= 0")
	}
	if len(c.LoyaltyTier) > 50 {
		return fmt.Errorf("loyalty_tier length must be at most 50")
	}
	return nil
}

// Facts returns the scoring inputs of the customer
func (c *Customer) Facts() scoring.CustomerFacts {
	return scoring.CustomerFacts{
		TotalSpent:    c.TotalSpent,
		OrderCount:    c.OrderCount,
		LastOrderAt:   c.LastOrderAt,
		LoyaltyMember: c.LoyaltyMember,
		LoyaltyPoints: c.LoyaltyPoints,
		LoyaltyTier:   string(c.LoyaltyTier),
	}
}

// SegmentationSnapshot is the computed segmentation state of a customer.
// It is always written as a whole.
type SegmentationSnapshot struct {
	RFMRecencyDays    int               `json:"rfm_recency_days"`
	RFMFrequencyScore int               `json:"rfm_frequency_score"`
	RFMMonetaryScore  int               `json:"rfm_monetary_score"`
	RFMScore          string            `json:"rfm_score"`
	EngagementScore   int               `json:"engagement_score"`
	PredictedLTV      float64           `json:"predicted_ltv"`
	ChurnRisk         scoring.ChurnRisk `json:"churn_risk"`
	SegmentTags       []string          `json:"segment_tags"`
	CalculatedAt      time.Time         `json:"calculated_at"`
}

// NewSegmentationSnapshot converts a scoring result into its persisted form.
// Tags are stored sorted.
func NewSegmentationSnapshot(result scoring.Result, calculatedAt time.Time) *SegmentationSnapshot {
	return &SegmentationSnapshot{
		RFMRecencyDays:    result.RFM.RecencyDays,
		RFMFrequencyScore: result.RFM.Frequency,
		RFMMonetaryScore:  result.RFM.Monetary,
		RFMScore:          result.RFM.String(),
		EngagementScore:   result.EngagementScore,
		PredictedLTV:      result.PredictedLTV,
		ChurnRisk:         result.ChurnRisk,
		SegmentTags:       result.Tags.Sorted(),
		CalculatedAt:      calculatedAt,
	}
}

// TagSet returns the snapshot tags as a set
func (s *SegmentationSnapshot) TagSet() scoring.TagSet {
	return scoring.NewTagSet(s.SegmentTags...)
}

// SegmentationProfile is the slice of a scored customer the segment
// assignment pass works on
type SegmentationProfile struct {
	CustomerID      string
	Tags            scoring.TagSet
	PredictedLTV    float64
	EngagementScore int
}

// CustomerColumns is the column list ScanCustomer expects, in order
const CustomerColumns = `id, organization_id, email, phone, first_name, last_name,
	total_spent, order_count, last_order_at,
	loyalty_member, loyalty_points, loyalty_tier,
	rfm_recency_days, rfm_frequency_score, rfm_monetary_score, rfm_score,
	engagement_score, predicted_ltv, churn_risk, segment_tags, segmentation_updated_at,
	created_at, updated_at`

type dbCustomer struct {
	ID             string
	OrganizationID string
	Email          sql.NullString
	Phone          sql.NullString
	FirstName      sql.NullString
	LastName       sql.NullString
	TotalSpent     float64
	OrderCount     int
	LastOrderAt    sql.NullTime
	LoyaltyMember  bool
	LoyaltyPoints  int
	LoyaltyTier    sql.NullString

	RFMRecencyDays        sql.NullInt64
	RFMFrequencyScore     sql.NullInt64
	RFMMonetaryScore      sql.NullInt64
	RFMScore              sql.NullString
	EngagementScore       sql.NullInt64
	PredictedLTV          sql.NullFloat64
	ChurnRisk             sql.NullString
	SegmentTags           StringArray
	SegmentationUpdatedAt sql.NullTime

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScanCustomer scans a customer selected with CustomerColumns
func ScanCustomer(scanner interface {
	Scan(dest ...interface{}) error
}) (*Customer, error) {
	var dbc dbCustomer
	if err := scanner.Scan(
		&dbc.ID,
		&dbc.OrganizationID,
		&dbc.Email,
		&dbc.Phone,
		&dbc.FirstName,
		&dbc.LastName,
		&dbc.TotalSpent,
		&dbc.OrderCount,
		&dbc.LastOrderAt,
		&dbc.LoyaltyMember,
		&dbc.LoyaltyPoints,
		&dbc.LoyaltyTier,
		&dbc.RFMRecencyDays,
		&dbc.RFMFrequencyScore,
		&dbc.RFMMonetaryScore,
		&dbc.RFMScore,
		&dbc.EngagementScore,
		&dbc.PredictedLTV,
		&dbc.ChurnRisk,
		&dbc.SegmentTags,
		&dbc.SegmentationUpdatedAt,
		&dbc.CreatedAt,
		&dbc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	c := &Customer{
		ID:             dbc.ID,
		OrganizationID: dbc.OrganizationID,
		Email:          dbc.Email.String,
		Phone:          dbc.Phone.String,
		FirstName:      dbc.FirstName.String,
		LastName:       dbc.LastName.String,
		TotalSpent:     dbc.TotalSpent,
		OrderCount:     dbc.OrderCount,
		LoyaltyMember:  dbc.LoyaltyMember,
		LoyaltyPoints:  dbc.LoyaltyPoints,
		LoyaltyTier:    LoyaltyTier(dbc.LoyaltyTier.String),
		CreatedAt:      dbc.CreatedAt,
		UpdatedAt:      dbc.UpdatedAt,
	}
	if dbc.LastOrderAt.Valid {
		t := dbc.LastOrderAt.Time
		c.LastOrderAt = &t
	}

	if dbc.SegmentationUpdatedAt.Valid {
		tags := []string(dbc.SegmentTags)
		if tags == nil {
			tags = []string{}
		}
		c.Segmentation = &SegmentationSnapshot{
			RFMRecencyDays:    int(dbc.RFMRecencyDays.Int64),
			RFMFrequencyScore: int(dbc.RFMFrequencyScore.Int64),
			RFMMonetaryScore:  int(dbc.RFMMonetaryScore.Int64),
			RFMScore:          dbc.RFMScore.String,
			EngagementScore:   int(dbc.EngagementScore.Int64),
			PredictedLTV:      dbc.PredictedLTV.Float64,
			ChurnRisk:         scoring.ChurnRisk(dbc.ChurnRisk.String),
			SegmentTags:       tags,
			CalculatedAt:      dbc.SegmentationUpdatedAt.Time,
		}
	}

	return c, nil
}

// CustomerFromJSON parses an ingestion payload. Snapshot fields are ignored:
// they are only ever produced by the segmentation pass.
func CustomerFromJSON(data interface{}) (*Customer, error) {
	var jsonResult gjson.Result

	switch v := data.(type) {
	case []byte:
		jsonResult = gjson.ParseBytes(v)
	case json.RawMessage:
		jsonResult = gjson.ParseBytes(v)
	case gjson.Result:
		jsonResult = v
	case string:
		jsonResult = gjson.Parse(v)
	default:
		return nil, fmt.Errorf("unsupported data type: %T", data)
	}

	if !jsonResult.IsObject() {
		return nil, fmt.Errorf("customer must be a JSON object")
	}

	c := &Customer{}
	var err error

	if c.ID, err = optionalString(jsonResult, "id"); err != nil {
		return nil, err
	}
	if c.Email, err = optionalString(jsonResult, "email"); err != nil {
		return nil, err
	}
	if c.Phone, err = optionalString(jsonResult, "phone"); err != nil {
		return nil, err
	}
	if c.FirstName, err = optionalString(jsonResult, "first_name"); err != nil {
		return nil, err
	}
	if c.LastName, err = optionalString(jsonResult, "last_name"); err != nil {
		return nil, err
	}
	if c.TotalSpent, err = optionalNumber(jsonResult, "total_spent"); err != nil {
		return nil, err
	}
	orderCount, err := optionalNumber(jsonResult, "order_count")
	if err != nil {
		return nil, err
	}
	if orderCount != float64(int(orderCount)) {
		return nil, fmt.Errorf("invalid value for order_count: must be an integer")
	}
	c.OrderCount = int(orderCount)

	if value := jsonResult.Get("last_order_at"); value.Exists() && value.Type != gjson.Null {
		if value.Type != gjson.String {
			return nil, fmt.Errorf("invalid type for last_order_at: expected string, got %s", value.Type)
		}
		t, err := time.Parse(time.RFC3339, value.String())
		if err != nil {
			return nil, fmt.Errorf("invalid time format for last_order_at: %v", err)
		}
		t = t.UTC()
		c.LastOrderAt = &t
	}

	if value := jsonResult.Get("loyalty_member"); value.Exists() && value.Type != gjson.Null {
		if value.Type != gjson.True && value.Type != gjson.False {
			return nil, fmt.Errorf("invalid type for loyalty_member: expected boolean, got %s", value.Type)
		}
		c.LoyaltyMember = value.Bool()
	}

	points, err := optionalNumber(jsonResult, "loyalty_points")
	if err != nil {
		return nil, err
	}
	if points != float64(int(points)) {
		return nil, fmt.Errorf("invalid value for loyalty_points: must be an integer")
	}
	c.LoyaltyPoints = int(points)

	tier, err := optionalString(jsonResult, "loyalty_tier")
	if err != nil {
		return nil, err
	}
	c.LoyaltyTier = LoyaltyTier(strings.ToUpper(strings.TrimSpace(tier)))

	return c, nil
}

func optionalString(result gjson.Result, field string) (string, error) {
	value := result.Get(field)
	if !value.Exists() || value.Type == gjson.Null {
		return "", nil
	}
	if value.Type != gjson.String {
		return "", fmt.Errorf("invalid type for %s: expected string, got %s", field, value.Type)
	}
	return strings.TrimSpace(value.String()), nil
}

func optionalNumber(result gjson.Result, field string) (float64, error) {
	value := result.Get(field)
	if !value.Exists() || value.Type == gjson.Null {
		return 0, nil
	}
	if value.Type != gjson.Number {
		return 0, fmt.Errorf("invalid type for %s: expected number, got %s", field, value.Type)
	}
	return value.Float(), nil
}

// UpsertCustomerRequest creates or updates one customer
type UpsertCustomerRequest struct {
	OrganizationID string          `json:"organization_id"`
	Customer       json.RawMessage `json:"customer"`
}

func (r *UpsertCustomerRequest) Validate() (customer *Customer, organizationID string, err error) {
	if r.OrganizationID == "" {
		return nil, "", fmt.Errorf("organization_id is required")
	}
	if len(r.Customer) == 0 {
		return nil, "", fmt.Errorf("customer is required")
	}
	customer, err = CustomerFromJSON(r.Customer)
	if err != nil {
		return nil, "", fmt.Errorf("invalid customer: %w", err)
	}
	customer.OrganizationID = r.OrganizationID
	return customer, r.OrganizationID, nil
}

type GetCustomerRequest struct {
	OrganizationID string `json:"organization_id"`
	ID             string `json:"id"`
}

func (r *GetCustomerRequest) FromURLParams(values url.Values) error {
	r.OrganizationID = values.Get("organization_id")
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	r.ID = values.Get("id")
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

const (
	DefaultCustomerPageSize = 50
	MaxCustomerPageSize     = 500
)

// ListCustomersRequest filters a page of an organization's customers
type ListCustomersRequest struct {
	OrganizationID string            `json:"organization_id"`
	ChurnRisk      scoring.ChurnRisk `json:"churn_risk,omitempty"`
	Tag            string            `json:"tag,omitempty"`
	LoyaltyTier    LoyaltyTier       `json:"loyalty_tier,omitempty"`
	Limit          int               `json:"limit"`
	Offset         int               `json:"offset"`
}

func (r *ListCustomersRequest) FromURLParams(values url.Values) error {
	r.OrganizationID = values.Get("organization_id")
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	r.ChurnRisk = scoring.ChurnRisk(strings.ToUpper(values.Get("churn_risk")))
	r.Tag = strings.ToUpper(values.Get("tag"))
	r.LoyaltyTier = LoyaltyTier(strings.ToUpper(values.Get("loyalty_tier")))

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
		r.Limit = limit
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid offset: %w", err)
		}
		r.Offset = offset
	}
	return r.Validate()
}

// Validate checks the filters and applies paging defaults
func (r *ListCustomersRequest) Validate() error {
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if r.ChurnRisk != "" && !r.ChurnRisk.Valid() {
		return fmt.Errorf("invalid churn_risk: %s", r.ChurnRisk)
	}
	if r.Offset < 0 {
		return fmt.Errorf("offset must be >= 0")
	}
	if r.Limit <= 0 {
		r.Limit = DefaultCustomerPageSize
	}
	if r.Limit > MaxCustomerPageSize {
		r.Limit = MaxCustomerPageSize
	}
	return nil
}

type ListCustomersResponse struct {
	Customers  []*Customer `json:"customers"`
	TotalCount int         `json:"total_count"`
}

// CustomerService manages customer records and their activity history
type CustomerService interface {
	// UpsertCustomer creates or updates a customer; returns true when created
	UpsertCustomer(ctx context.Context, customer *Customer) (bool, error)

	// GetCustomer retrieves one customer with its segmentation snapshot
	GetCustomer(ctx context.Context, organizationID, customerID string) (*Customer, error)

	// ListCustomers pages through an organization's customers
	ListCustomers(ctx context.Context, req *ListCustomersRequest) (*ListCustomersResponse, error)

	// RecordActivity stores an activity for a customer
	RecordActivity(ctx context.Context, activity *Activity) error
}

type CustomerRepository interface {
	// GetCustomer retrieves a customer by id within an organization
	GetCustomer(ctx context.Context, organizationID, customerID string) (*Customer, error)

	// ListCustomers pages through customers matching the request filters
	ListCustomers(ctx context.Context, req *ListCustomersRequest) (*ListCustomersResponse, error)

	// ListCustomerIDs returns every customer id of an organization
	ListCustomerIDs(ctx context.Context, organizationID string) ([]string, error)

	// ListOrganizationIDs returns every organization that owns customers
	ListOrganizationIDs(ctx context.Context) ([]string, error)

	// UpsertCustomer inserts or updates identity, commerce and loyalty fields
	UpsertCustomer(ctx context.Context, customer *Customer) (bool, error)

	// UpdateSegmentation replaces the whole segmentation snapshot of a customer
	UpdateSegmentation(ctx context.Context, organizationID, customerID string, snapshot *SegmentationSnapshot) error

	// ListSegmentationProfiles returns tags and scores of every scored customer
	ListSegmentationProfiles(ctx context.Context, organizationID string) ([]*SegmentationProfile, error)
}
