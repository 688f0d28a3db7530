package service

import (
	"context"
	"sync"
	"time"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// DefaultSchedulerInterval runs the evaluation pipeline once a day
const DefaultSchedulerInterval = 24 * time.Hour

// OrganizationLister lists the organizations the scheduler evaluates
type OrganizationLister interface {
	ListOrganizationIDs(ctx context.Context) ([]string, error)
}

// SegmentationScheduler periodically runs the evaluation pipeline for every organization
type SegmentationScheduler struct {
	organizations OrganizationLister
	segmentation  domain.SegmentationService
	logger        logger.Logger
	interval      time.Duration
	stopChan      chan struct{}
	stoppedChan   chan struct{}
	mu            sync.Mutex
	running       bool
}

// NewSegmentationScheduler creates a new scheduler; a non positive interval uses DefaultSchedulerInterval
func NewSegmentationScheduler(
	organizations OrganizationLister,
	segmentation domain.SegmentationService,
	logger logger.Logger,
	interval time.Duration,
) *SegmentationScheduler {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}
	return &SegmentationScheduler{
		organizations: organizations,
		segmentation:  segmentation,
		logger:        logger,
		interval:      interval,
	}
}

// Start begins the scheduler loop; the first pass runs after one interval.
// A stopped scheduler can be started again.
func (s *SegmentationScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Segmentation scheduler already running")
		return
	}
	s.running = true
	stop := make(chan struct{})
	stopped := make(chan struct{})
	s.stopChan = stop
	s.stoppedChan = stopped
	s.mu.Unlock()

	s.logger.WithField("interval", s.interval.String()).Info("Starting segmentation scheduler")

	go s.run(ctx, stop, stopped)
}

// Stop gracefully stops the scheduler
func (s *SegmentationScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, stopped := s.stopChan, s.stoppedChan
	s.mu.Unlock()

	s.logger.Info("Stopping segmentation scheduler...")
	close(stop)

	select {
	case <-stopped:
		s.logger.Info("Segmentation scheduler stopped successfully")
	case <-time.After(5 * time.Second):
		s.logger.Warn("Segmentation scheduler stop timeout exceeded")
	}
}

func (s *SegmentationScheduler) run(ctx context.Context, stop <-chan struct{}, stopped chan struct{}) {
	defer close(stopped)
	defer func() {
		s.mu.Lock()
		// a newer Start owns the flag once the channels were replaced
		if s.stoppedChan == stopped {
			s.running = false
		}
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// the in-flight pass shares this context so Stop interrupts it between customers
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			s.logger.Info("Segmentation scheduler context cancelled")
			return
		case <-ticker.C:
			s.RunOnce(runCtx)
		}
	}
}

// RunOnce evaluates every organization sequentially. An organization that
// fails is logged and the pass moves on.
func (s *SegmentationScheduler) RunOnce(ctx context.Context) {
	ctx, span := tracing.StartServiceSpan(ctx, "SegmentationScheduler", "RunOnce")
	defer tracing.EndSpan(span, nil)

	startTime := time.Now()

	organizationIDs, err := s.organizations.ListOrganizationIDs(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		s.logger.WithField("error", err.Error()).Error("Failed to list organizations for segmentation")
		return
	}

	failed := 0
	for _, organizationID := range organizationIDs {
		if ctx.Err() != nil {
			s.logger.Warn("Segmentation pass interrupted")
			return
		}

		result, err := s.segmentation.EvaluateOrganization(ctx, organizationID)
		if err != nil {
			failed++
			s.logger.WithFields(map[string]interface{}{
				"organization_id": organizationID,
				"error":           err.Error(),
			}).Error("Scheduled segmentation failed")
			continue
		}

		s.logger.WithFields(map[string]interface{}{
			"organization_id": organizationID,
			"processed":       result.Processed,
			"failed":          result.Failed,
			"segments":        len(result.Segments),
		}).Info("Scheduled segmentation completed")
	}

	s.logger.WithFields(map[string]interface{}{
		"organizations": len(organizationIDs),
		"failed":        failed,
		"elapsed":       time.Since(startTime).String(),
	}).Info("Segmentation pass completed")
}

// IsRunning returns whether the scheduler is currently running
func (s *SegmentationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
