package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/trace"
	"golang.org/x/sync/singleflight"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/scoring"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// SegmentationService scores customers and runs organization wide recalculations
type SegmentationService struct {
	customerRepo   domain.CustomerRepository
	activityRepo   domain.ActivityRepository
	segmentService domain.SegmentService
	notifier       domain.WebhookNotifier
	logger         logger.Logger
	now            func() time.Time

	// collapses concurrent bulk runs of the same organization
	runs   singleflight.Group
	runsMu sync.Mutex
	active map[string]*organizationRun
}

// organizationRun is one shared bulk run. It keeps going while at least one
// joined caller is still waiting for it.
type organizationRun struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters []context.Context
	done    chan struct{}
}

var _ domain.SegmentationService = (*SegmentationService)(nil)

// NewSegmentationService creates a new segmentation service.
// notifier may be nil.
func NewSegmentationService(
	customerRepo domain.CustomerRepository,
	activityRepo domain.ActivityRepository,
	segmentService domain.SegmentService,
	notifier domain.WebhookNotifier,
	logger logger.Logger,
) *SegmentationService {
	return &SegmentationService{
		customerRepo:   customerRepo,
		activityRepo:   activityRepo,
		segmentService: segmentService,
		notifier:       notifier,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source, used by tests
func (s *SegmentationService) SetClock(now func() time.Time) {
	s.now = now
}

// RecalculateCustomer fetches the customer and its recent activity, scores it
// and replaces its whole segmentation snapshot
func (s *SegmentationService) RecalculateCustomer(ctx context.Context, organizationID, customerID string) (*domain.SegmentationSnapshot, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentationService", "RecalculateCustomer")
	defer span.End()

	span.AddAttributes(
		trace.StringAttribute("organization.id", organizationID),
		trace.StringAttribute("customer.id", customerID),
	)

	customer, err := s.customerRepo.GetCustomer(ctx, organizationID, customerID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	activities, err := s.activityRepo.ListRecentActivities(ctx, organizationID, customerID, domain.RecentActivityLimit)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	now := s.now()
	result := scoring.Evaluate(customer.Facts(), domain.CountEngagementActivities(activities), now)
	snapshot := domain.NewSegmentationSnapshot(result, now)

	if err := s.customerRepo.UpdateSegmentation(ctx, organizationID, customerID, snapshot); err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to save segmentation: %w", err)
	}

	span.AddAttributes(
		trace.StringAttribute("segmentation.rfm_score", snapshot.RFMScore),
		trace.StringAttribute("segmentation.churn_risk", string(snapshot.ChurnRisk)),
	)

	s.logger.WithFields(map[string]interface{}{
		"organization_id":  organizationID,
		"customer_id":      customerID,
		"rfm_score":        snapshot.RFMScore,
		"engagement_score": snapshot.EngagementScore,
		"churn_risk":       snapshot.ChurnRisk,
		"tags":             snapshot.SegmentTags,
	}).Debug("Customer segmentation recalculated")

	return snapshot, nil
}

// RecalculateOrganization recalculates every customer of the organization one
// at a time. A failing customer is counted and skipped. Concurrent calls for
// the same organization share a single run and its result.
func (s *SegmentationService) RecalculateOrganization(ctx context.Context, organizationID string) (*domain.RecalculationResult, error) {
	if organizationID == "" {
		return nil, domain.NewValidationError("organization_id is required")
	}

	run, err := s.joinRun(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	ch := s.runs.DoChan(organizationID, func() (interface{}, error) {
		return s.recalculateOrganization(run.ctx, organizationID, func() error { return s.runErr(run) })
	})

	select {
	case res := <-ch:
		if s.leaveRun(ctx, run) {
			s.finishRun(organizationID, run)
		}
		if res.Shared {
			s.logger.WithField("organization_id", organizationID).Debug("Joined an in-flight recalculation run")
		}
		result, _ := res.Val.(*domain.RecalculationResult)
		return result, res.Err

	case <-ctx.Done():
		if !s.leaveRun(ctx, run) {
			return nil, ctx.Err()
		}
		// last caller: wait for the run to wind down and hand back its partial result
		res := <-ch
		s.finishRun(organizationID, run)
		result, _ := res.Val.(*domain.RecalculationResult)
		if res.Err != nil {
			return result, ctx.Err()
		}
		return result, nil
	}
}

// joinRun registers ctx as a waiter of the organization's active run, starting
// a new one when none is active. A run abandoned by all of its callers is
// waited out before a fresh one starts.
func (s *SegmentationService) joinRun(ctx context.Context, organizationID string) (*organizationRun, error) {
	for {
		s.runsMu.Lock()
		if s.active == nil {
			s.active = make(map[string]*organizationRun)
		}
		run, ok := s.active[organizationID]
		if !ok {
			runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			run = &organizationRun{ctx: runCtx, cancel: cancel, done: make(chan struct{})}
			s.active[organizationID] = run
		}
		if run.ctx.Err() == nil {
			run.waiters = append(run.waiters, ctx)
			s.runsMu.Unlock()
			return run, nil
		}
		s.runsMu.Unlock()

		select {
		case <-run.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// leaveRun drops ctx from the run's waiters and cancels the run once nobody
// is left. It reports whether the caller was the last one.
func (s *SegmentationService) leaveRun(ctx context.Context, run *organizationRun) bool {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	for i, w := range run.waiters {
		if w == ctx {
			run.waiters = append(run.waiters[:i], run.waiters[i+1:]...)
			break
		}
	}
	if len(run.waiters) > 0 {
		return false
	}
	run.cancel()
	return true
}

func (s *SegmentationService) finishRun(organizationID string, run *organizationRun) {
	s.runsMu.Lock()
	if s.active[organizationID] == run {
		delete(s.active, organizationID)
	}
	s.runsMu.Unlock()
	close(run.done)
}

// runErr is nil while any waiter of the run is still live
func (s *SegmentationService) runErr(run *organizationRun) error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	for _, w := range run.waiters {
		if w.Err() == nil {
			return nil
		}
	}
	if len(run.waiters) > 0 {
		return run.waiters[0].Err()
	}
	return run.ctx.Err()
}

func (s *SegmentationService) recalculateOrganization(ctx context.Context, organizationID string, stopped func() error) (*domain.RecalculationResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentationService", "RecalculateOrganization")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("organization.id", organizationID))

	result := &domain.RecalculationResult{
		OrganizationID: organizationID,
		StartedAt:      s.now(),
	}

	customerIDs, err := s.customerRepo.ListCustomerIDs(ctx, organizationID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	started := time.Now()
	for _, customerID := range customerIDs {
		if err := stopped(); err != nil {
			result.CompletedAt = s.now()
			s.logger.WithFields(map[string]interface{}{
				"organization_id": organizationID,
				"processed":       result.Processed,
				"failed":          result.Failed,
				"remaining":       len(customerIDs) - result.Processed - result.Failed,
			}).Warn("Recalculation interrupted")
			return result, err
		}

		if err := s.recalculateIsolated(ctx, organizationID, customerID); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, domain.CustomerFailure{
				CustomerID: customerID,
				Error:      err.Error(),
			})
			recordCustomerOutcome(ctx, false)
			s.logger.WithFields(map[string]interface{}{
				"organization_id": organizationID,
				"customer_id":     customerID,
				"error":           err.Error(),
			}).Warn("Failed to recalculate customer segmentation")
			continue
		}

		result.Processed++
		recordCustomerOutcome(ctx, true)
	}
	result.CompletedAt = s.now()

	stats.Record(ctx, MeasureRecalculationLatency.M(float64(time.Since(started).Milliseconds())))
	span.AddAttributes(
		trace.Int64Attribute("segmentation.processed", int64(result.Processed)),
		trace.Int64Attribute("segmentation.failed", int64(result.Failed)),
	)

	s.logger.WithFields(map[string]interface{}{
		"organization_id": organizationID,
		"processed":       result.Processed,
		"failed":          result.Failed,
	}).Info("Organization segmentation recalculated")

	s.notify(ctx, domain.EventCustomersRecalculated, map[string]interface{}{
		"organization_id": organizationID,
		"processed":       result.Processed,
		"failed":          result.Failed,
	})

	return result, nil
}

// recalculateIsolated turns a panic of one customer into an error
func (s *SegmentationService) recalculateIsolated(ctx context.Context, organizationID, customerID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ErrCustomerProcessing{
				CustomerID: customerID,
				Err:        fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if _, err := s.RecalculateCustomer(ctx, organizationID, customerID); err != nil {
		return &domain.ErrCustomerProcessing{CustomerID: customerID, Err: err}
	}
	return nil
}

// EvaluateOrganization recalculates every customer then reassigns AI segments
func (s *SegmentationService) EvaluateOrganization(ctx context.Context, organizationID string) (*domain.EvaluationResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentationService", "EvaluateOrganization")
	defer span.End()

	recalculation, err := s.RecalculateOrganization(ctx, organizationID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	segments, err := s.segmentService.AssignSegments(ctx, organizationID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to assign segments: %w", err)
	}

	result := &domain.EvaluationResult{
		OrganizationID: organizationID,
		Processed:      recalculation.Processed,
		Failed:         recalculation.Failed,
		Segments:       segments,
	}

	s.notify(ctx, domain.EventSegmentsAssigned, result)

	return result, nil
}

// notify never fails the caller
func (s *SegmentationService) notify(ctx context.Context, eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, eventType, payload); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		}).Warn("Failed to deliver segmentation webhook")
	}
}
