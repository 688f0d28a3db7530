package service

import (
	"context"
	"fmt"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/trace"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// SegmentService assigns tagged customers to the AI segment catalog
type SegmentService struct {
	segmentRepo  domain.SegmentRepository
	customerRepo domain.CustomerRepository
	catalog      domain.SegmentCatalog
	logger       logger.Logger
	now          func() time.Time
}

var _ domain.SegmentService = (*SegmentService)(nil)

// NewSegmentService creates a new segment service.
// An empty catalog falls back to domain.DefaultSegmentCatalog.
func NewSegmentService(
	segmentRepo domain.SegmentRepository,
	customerRepo domain.CustomerRepository,
	catalog domain.SegmentCatalog,
	logger logger.Logger,
) *SegmentService {
	if len(catalog) == 0 {
		catalog = domain.DefaultSegmentCatalog()
	}
	return &SegmentService{
		segmentRepo:  segmentRepo,
		customerRepo: customerRepo,
		catalog:      catalog,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source, used by tests
func (s *SegmentService) SetClock(now func() time.Time) {
	s.now = now
}

// Catalog returns the segment definitions this service assigns
func (s *SegmentService) Catalog() domain.SegmentCatalog {
	return s.catalog
}

// AssignSegments matches every scored customer against each catalog definition,
// then replaces membership and stats of the corresponding AI segment.
// Running it twice on unchanged tags yields the same membership and stats.
func (s *SegmentService) AssignSegments(ctx context.Context, organizationID string) ([]domain.SegmentAssignmentSummary, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentService", "AssignSegments")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("organization.id", organizationID))

	if organizationID == "" {
		return nil, domain.NewValidationError("organization_id is required")
	}

	profiles, err := s.customerRepo.ListSegmentationProfiles(ctx, organizationID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list segmentation profiles: %w", err)
	}

	now := s.now()
	summaries := make([]domain.SegmentAssignmentSummary, 0, len(s.catalog))

	for _, def := range s.catalog {
		members := make([]*domain.SegmentationProfile, 0)
		customerIDs := make([]string, 0)
		for _, profile := range profiles {
			if def.Matches(profile.Tags) {
				members = append(members, profile)
				customerIDs = append(customerIDs, profile.CustomerID)
			}
		}

		segmentStats := domain.ComputeSegmentStats(members)

		segment, err := s.segmentRepo.SaveAssignment(ctx, &domain.SegmentAssignment{
			OrganizationID: organizationID,
			Definition:     def,
			CustomerIDs:    customerIDs,
			Stats:          segmentStats,
			CalculatedAt:   now,
		})
		if err != nil {
			tracing.MarkSpanError(ctx, err)
			s.logger.WithFields(map[string]interface{}{
				"organization_id": organizationID,
				"segment_type":    def.SegmentType,
				"error":           err.Error(),
			}).Error("Failed to save segment assignment")
			return nil, fmt.Errorf("failed to assign segment %s: %w", def.SegmentType, err)
		}

		summaries = append(summaries, domain.SegmentAssignmentSummary{
			SegmentID:     segment.ID,
			Name:          segment.Name,
			SegmentType:   def.SegmentType,
			CustomerCount: segmentStats.CustomerCount,
			AvgLTV:        segmentStats.AvgLTV,
			AvgEngagement: segmentStats.AvgEngagement,
		})

		s.logger.WithFields(map[string]interface{}{
			"organization_id": organizationID,
			"segment_id":      segment.ID,
			"segment_type":    def.SegmentType,
			"customer_count":  segmentStats.CustomerCount,
		}).Debug("Segment assigned")
	}

	recordSegmentsAssigned(ctx, len(summaries))

	s.logger.WithFields(map[string]interface{}{
		"organization_id": organizationID,
		"segments":        len(summaries),
		"customers":       len(profiles),
	}).Info("AI segments assigned")

	return summaries, nil
}

func recordSegmentsAssigned(ctx context.Context, count int) {
	stats.Record(ctx, MeasureSegmentsAssigned.M(int64(count)))
}

// ListSegments returns every segment of an organization
func (s *SegmentService) ListSegments(ctx context.Context, organizationID string) ([]*domain.Segment, error) {
	segments, err := s.segmentRepo.ListSegments(ctx, organizationID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"organization_id": organizationID,
			"error":           err.Error(),
		}).Error("Failed to list segments")
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	return segments, nil
}

// GetSegment returns one segment of an organization
func (s *SegmentService) GetSegment(ctx context.Context, organizationID, segmentID string) (*domain.Segment, error) {
	segment, err := s.segmentRepo.GetSegmentByID(ctx, organizationID, segmentID)
	if err != nil {
		return nil, err
	}
	return segment, nil
}

// GetSegmentCustomers pages through the members of a segment
func (s *SegmentService) GetSegmentCustomers(ctx context.Context, req *domain.GetSegmentCustomersRequest) (*domain.GetSegmentCustomersResponse, error) {
	segment, err := s.segmentRepo.GetSegmentByID(ctx, req.OrganizationID, req.SegmentID)
	if err != nil {
		return nil, err
	}

	customers, total, err := s.segmentRepo.ListSegmentCustomers(ctx, req.OrganizationID, req.SegmentID, req.Limit, req.Offset)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"organization_id": req.OrganizationID,
			"segment_id":      req.SegmentID,
			"error":           err.Error(),
		}).Error("Failed to list segment customers")
		return nil, fmt.Errorf("failed to list segment customers: %w", err)
	}

	return &domain.GetSegmentCustomersResponse{
		Segment:    segment,
		Customers:  customers,
		TotalCount: total,
	}, nil
}
