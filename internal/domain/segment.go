package domain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/callmaker24/segmentation/pkg/scoring"
)

//go:generate mockgen -destination mocks/mock_segment_service.go -package mocks github.com/callmaker24/segmentation/internal/domain SegmentService
//go:generate mockgen -destination mocks/mock_segment_repository.go -package mocks github.com/callmaker24/segmentation/internal/domain SegmentRepository

// Segment is a named group of customers of one organization.
// AI-powered segments are unique per (organization_id, segment_type).
type Segment struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	SegmentType      string     `json:"segment_type"`
	IsAIPowered      bool       `json:"is_ai_powered"`
	AutoUpdate       bool       `json:"auto_update"`
	CustomerCount    int        `json:"customer_count"`
	AvgLifetimeValue float64    `json:"avg_lifetime_value"`
	AvgEngagement    float64    `json:"avg_engagement"`
	LastCalculatedAt *time.Time `json:"last_calculated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SegmentColumns is the column list ScanSegment expects, in order
const SegmentColumns = `id, organization_id, name, description, segment_type, is_ai_powered, auto_update,
	customer_count, avg_lifetime_value, avg_engagement, last_calculated_at, created_at, updated_at`

// ScanSegment scans a segment selected with SegmentColumns
func ScanSegment(scanner interface {
	Scan(dest ...interface{}) error
}) (*Segment, error) {
	var s Segment
	var lastCalculatedAt *time.Time
	if err := scanner.Scan(
		&s.ID,
		&s.OrganizationID,
		&s.Name,
		&s.Description,
		&s.SegmentType,
		&s.IsAIPowered,
		&s.AutoUpdate,
		&s.CustomerCount,
		&s.AvgLifetimeValue,
		&s.AvgEngagement,
		&lastCalculatedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.LastCalculatedAt = lastCalculatedAt
	return &s, nil
}

// SegmentDefinition is one entry of the AI segment catalog.
// A customer matches when it carries at least one of Tags.
type SegmentDefinition struct {
	Name        string   `json:"name"`
	SegmentType string   `json:"segment_type"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (d SegmentDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(d.SegmentType) == "" {
		return fmt.Errorf("segment_type is required")
	}
	if len(d.TagSet()) == 0 {
		return fmt.Errorf("segment %s must match at least one tag", d.SegmentType)
	}
	return nil
}

func (d SegmentDefinition) TagSet() scoring.TagSet {
	return scoring.NewTagSet(d.Tags...)
}

// Matches reports whether the customer tags intersect the definition tags
func (d SegmentDefinition) Matches(tags scoring.TagSet) bool {
	return d.TagSet().Intersects(tags)
}

// SegmentCatalog is the ordered list of AI segments assigned per organization
type SegmentCatalog []SegmentDefinition

// DefaultSegmentCatalog returns the built-in AI segments
func DefaultSegmentCatalog() SegmentCatalog {
	return SegmentCatalog{
		{
			Name:        "Champions",
			SegmentType: "CHAMPIONS",
			Description: "Best customers: recent, frequent and high spending",
			Tags:        []string{scoring.TagChampion},
		},
		{
			Name:        "High Value",
			SegmentType: "HIGH_VALUE",
			Description: "Customers with the highest spend or VIP status",
			Tags:        []string{scoring.TagHighValue, scoring.TagVIP},
		},
		{
			Name:        "At Risk",
			SegmentType: "AT_RISK",
			Description: "Customers likely to churn or gone dormant",
			Tags:        []string{scoring.TagAtRisk, scoring.TagDormant},
		},
		{
			Name:        "Highly Engaged",
			SegmentType: "HIGHLY_ENGAGED",
			Description: "Customers interacting frequently across channels",
			Tags:        []string{scoring.TagHighlyEngaged},
		},
		{
			Name:        "New Customers",
			SegmentType: "NEW_CUSTOMERS",
			Description: "Customers with a single recent order",
			Tags:        []string{scoring.TagNewCustomer},
		},
		{
			Name:        "Frequent Buyers",
			SegmentType: "FREQUENT_BUYERS",
			Description: "Customers with a high order count",
			Tags:        []string{scoring.TagFrequentBuyer},
		},
	}
}

// Validate checks every definition and the uniqueness of segment types
func (c SegmentCatalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("segment catalog is empty")
	}
	seen := make(map[string]struct{}, len(c))
	for i, def := range c {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("invalid segment definition at index %d: %w", i, err)
		}
		if _, ok := seen[def.SegmentType]; ok {
			return fmt.Errorf("duplicate segment_type: %s", def.SegmentType)
		}
		seen[def.SegmentType] = struct{}{}
	}
	return nil
}

// ParseSegmentCatalog reads a JSON array of segment definitions
func ParseSegmentCatalog(data []byte) (SegmentCatalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("segment catalog is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("segment catalog must be a JSON array")
	}

	var catalog SegmentCatalog
	for i, item := range root.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("segment definition at index %d must be an object", i)
		}
		def := SegmentDefinition{
			Name:        strings.TrimSpace(item.Get("name").String()),
			SegmentType: strings.ToUpper(strings.TrimSpace(item.Get("segment_type").String())),
			Description: item.Get("description").String(),
		}
		tags := item.Get("tags")
		if tags.Exists() && !tags.IsArray() {
			return nil, fmt.Errorf("tags of segment definition at index %d must be an array", i)
		}
		for _, tag := range tags.Array() {
			if tag.Type != gjson.String {
				return nil, fmt.Errorf("tags of segment definition at index %d must be strings", i)
			}
			def.Tags = append(def.Tags, strings.ToUpper(strings.TrimSpace(tag.String())))
		}
		catalog = append(catalog, def)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// SegmentStats are the cached aggregates of a segment's members
type SegmentStats struct {
	CustomerCount int     `json:"customer_count"`
	AvgLTV        float64 `json:"avg_ltv"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// ComputeSegmentStats averages LTV and engagement over members; averages are 0 without members
func ComputeSegmentStats(members []*SegmentationProfile) SegmentStats {
	stats := SegmentStats{CustomerCount: len(members)}
	if len(members) == 0 {
		return stats
	}

	var ltvSum float64
	var engagementSum int
	for _, m := range members {
		ltvSum += m.PredictedLTV
		engagementSum += m.EngagementScore
	}
	stats.AvgLTV = ltvSum / float64(len(members))
	stats.AvgEngagement = float64(engagementSum) / float64(len(members))
	return stats
}

// SegmentAssignment is everything persisted for one definition in one transaction
type SegmentAssignment struct {
	OrganizationID string
	Definition     SegmentDefinition
	CustomerIDs    []string
	Stats          SegmentStats
	CalculatedAt   time.Time
}

// SegmentAssignmentSummary reports the outcome of one assigned segment
type SegmentAssignmentSummary struct {
	SegmentID     string  `json:"segment_id"`
	Name          string  `json:"name"`
	SegmentType   string  `json:"segment_type"`
	CustomerCount int     `json:"customer_count"`
	AvgLTV        float64 `json:"avg_ltv"`
	AvgEngagement float64 `json:"avg_engagement"`
}

type ListSegmentsRequest struct {
	OrganizationID string `json:"organization_id"`
}

func (r *ListSegmentsRequest) FromURLParams(values url.Values) error {
	r.OrganizationID = values.Get("organization_id")
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	return nil
}

type GetSegmentRequest struct {
	OrganizationID string `json:"organization_id"`
	ID             string `json:"id"`
}

func (r *GetSegmentRequest) FromURLParams(values url.Values) error {
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

type GetSegmentCustomersRequest struct {
	OrganizationID string `json:"organization_id"`
	SegmentID      string `json:"segment_id"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
}

func (r *GetSegmentCustomersRequest) FromURLParams(values url.Values) error {
	r.OrganizationID = values.Get("organization_id")
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	r.SegmentID = values.Get("segment_id")
	if r.SegmentID == "" {
		return fmt.Errorf("segment_id is required")
	}
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

type GetSegmentCustomersResponse struct {
	Segment    *Segment    `json:"segment"`
	Customers  []*Customer `json:"customers"`
	TotalCount int         `json:"total_count"`
}

// SegmentService assigns AI segments and exposes them for reading
type SegmentService interface {
	// AssignSegments recomputes membership and stats of every catalog segment
	AssignSegments(ctx context.Context, organizationID string) ([]SegmentAssignmentSummary, error)

	// ListSegments returns every segment of an organization
	ListSegments(ctx context.Context, organizationID string) ([]*Segment, error)

	// GetSegment returns one segment
	GetSegment(ctx context.Context, organizationID, segmentID string) (*Segment, error)

	// GetSegmentCustomers pages through the members of a segment
	GetSegmentCustomers(ctx context.Context, req *GetSegmentCustomersRequest) (*GetSegmentCustomersResponse, error)
}

type SegmentRepository interface {
	// SaveAssignment upserts the AI segment of the definition, replaces its
	// membership and stores its stats in a single transaction
	SaveAssignment(ctx context.Context, assignment *SegmentAssignment) (*Segment, error)

	// GetSegmentByID retrieves a segment within an organization
	GetSegmentByID(ctx context.Context, organizationID, segmentID string) (*Segment, error)

	// ListSegments returns the segments of an organization ordered by name
	ListSegments(ctx context.Context, organizationID string) ([]*Segment, error)

	// ListSegmentCustomers returns a page of segment members and the total member count
	ListSegmentCustomers(ctx context.Context, organizationID, segmentID string, limit, offset int) ([]*Customer, int, error)
}
