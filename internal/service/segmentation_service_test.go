package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/domain/mocks"
	"github.com/callmaker24/segmentation/pkg/scoring"
)

type segmentationFixture struct {
	customerRepo   *mocks.MockCustomerRepository
	activityRepo   *mocks.MockActivityRepository
	segmentService *mocks.MockSegmentService
	notifier       *mocks.MockWebhookNotifier
	service        *SegmentationService
}

func newSegmentationFixture(t *testing.T) *segmentationFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &segmentationFixture{
		customerRepo:   mocks.NewMockCustomerRepository(ctrl),
		activityRepo:   mocks.NewMockActivityRepository(ctrl),
		segmentService: mocks.NewMockSegmentService(ctrl),
		notifier:       mocks.NewMockWebhookNotifier(ctrl),
	}
	f.service = NewSegmentationService(f.customerRepo, f.activityRepo, f.segmentService, f.notifier, setupMockLogger(ctrl))
	f.service.SetClock(func() time.Time { return testNow })
	return f
}

// expectRecalculation wires one successful customer recalculation and captures the saved snapshot
func (f *segmentationFixture) expectRecalculation(customer *domain.Customer, activities []*domain.Activity, saved **domain.SegmentationSnapshot) {
	f.customerRepo.EXPECT().GetCustomer(gomock.Any(), customer.OrganizationID, customer.ID).Return(customer, nil)
	f.activityRepo.EXPECT().ListRecentActivities(gomock.Any(), customer.OrganizationID, customer.ID, domain.RecentActivityLimit).Return(activities, nil)
	f.customerRepo.EXPECT().UpdateSegmentation(gomock.Any(), customer.OrganizationID, customer.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, snapshot *domain.SegmentationSnapshot) error {
			if saved != nil {
				*saved = snapshot
			}
			return nil
		})
}

func TestSegmentationService_RecalculateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("champion customer", func(t *testing.T) {
		f := newSegmentationFixture(t)
		customer := &domain.Customer{
			ID:             "c1",
			OrganizationID: "org1",
			OrderCount:     25,
			TotalSpent:     1500,
			LastOrderAt:    daysAgo(10),
		}

		var saved *domain.SegmentationSnapshot
		f.expectRecalculation(customer, nil, &saved)

		snapshot, err := f.service.RecalculateCustomer(ctx, "org1", "c1")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Same(t, saved, snapshot)

		assert.Equal(t, "555", snapshot.RFMScore)
		assert.Equal(t, 10, snapshot.RFMRecencyDays)
		assert.Equal(t, 5, snapshot.RFMFrequencyScore)
		assert.Equal(t, 5, snapshot.RFMMonetaryScore)
		assert.Equal(t, 3000.0, snapshot.PredictedLTV)
		assert.Equal(t, scoring.ChurnRiskLow, snapshot.ChurnRisk)
		assert.Subset(t, snapshot.SegmentTags, []string{
			scoring.TagChampion, scoring.TagHighValue, scoring.TagFrequentBuyer, scoring.TagRecentCustomer,
		})
		assert.Equal(t, testNow, snapshot.CalculatedAt)
	})

	t.Run("customer without history", func(t *testing.T) {
		f := newSegmentationFixture(t)
		customer := &domain.Customer{ID: "c2", OrganizationID: "org1"}

		var saved *domain.SegmentationSnapshot
		f.expectRecalculation(customer, []*domain.Activity{}, &saved)

		snapshot, err := f.service.RecalculateCustomer(ctx, "org1", "c2")
		require.NoError(t, err)

		assert.Equal(t, "111", snapshot.RFMScore)
		assert.Equal(t, scoring.NoOrderRecencyDays, snapshot.RFMRecencyDays)
		assert.Equal(t, 0, snapshot.EngagementScore)
		assert.Equal(t, scoring.ChurnRiskHigh, snapshot.ChurnRisk)
		assert.Equal(t, 0.0, snapshot.PredictedLTV)
		assert.ElementsMatch(t, []string{
			scoring.TagLowValue, scoring.TagDisengaged, scoring.TagNewCustomer, scoring.TagAtRisk, scoring.TagDormant,
		}, snapshot.SegmentTags)
	})

	t.Run("engagement from recent activity", func(t *testing.T) {
		f := newSegmentationFixture(t)
		customer := &domain.Customer{ID: "c3", OrganizationID: "org1", OrderCount: 5, TotalSpent: 300, LastOrderAt: daysAgo(5)}

		activities := activitiesOf(map[domain.ActivityType]int{
			domain.ActivityTypeEmailOpened:  50,
			domain.ActivityTypeEmailClicked: 10,
			domain.ActivityTypePurchase:     5,
			domain.ActivityTypePageView:     25,
			domain.ActivityTypeEmailSent:    10,
		})
		require.Len(t, activities, 100)

		f.expectRecalculation(customer, activities, nil)

		snapshot, err := f.service.RecalculateCustomer(ctx, "org1", "c3")
		require.NoError(t, err)
		assert.Equal(t, 55, snapshot.EngagementScore)
		assert.Contains(t, snapshot.SegmentTags, scoring.TagModeratelyEngaged)
	})

	t.Run("customer not found", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "missing").
			Return(nil, &domain.ErrCustomerNotFound{Message: "customer missing not found"})

		_, err := f.service.RecalculateCustomer(ctx, "org1", "missing")
		require.Error(t, err)

		var notFound *domain.ErrCustomerNotFound
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("activity store failure", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "c1").Return(&domain.Customer{ID: "c1", OrganizationID: "org1"}, nil)
		f.activityRepo.EXPECT().ListRecentActivities(gomock.Any(), "org1", "c1", domain.RecentActivityLimit).Return(nil, errors.New("timeout"))

		_, err := f.service.RecalculateCustomer(ctx, "org1", "c1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list activities")
	})

	t.Run("save failure", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "c1").Return(&domain.Customer{ID: "c1", OrganizationID: "org1"}, nil)
		f.activityRepo.EXPECT().ListRecentActivities(gomock.Any(), "org1", "c1", domain.RecentActivityLimit).Return(nil, nil)
		f.customerRepo.EXPECT().UpdateSegmentation(gomock.Any(), "org1", "c1", gomock.Any()).Return(errors.New("disk full"))

		_, err := f.service.RecalculateCustomer(ctx, "org1", "c1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save segmentation")
	})
}

func TestSegmentationService_RecalculateOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("one failing customer does not abort the run", func(t *testing.T) {
		f := newSegmentationFixture(t)
		ids := []string{"a", "b", "c", "d"}
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return(ids, nil)

		for _, id := range []string{"a", "c", "d"} {
			f.expectRecalculation(&domain.Customer{ID: id, OrganizationID: "org1"}, nil, nil)
		}
		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "b").Return(nil, errors.New("connection reset"))

		f.notifier.EXPECT().Notify(gomock.Any(), domain.EventCustomersRecalculated, gomock.Any()).Return(nil)

		result, err := f.service.RecalculateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "b", result.Failures[0].CustomerID)
		assert.Contains(t, result.Failures[0].Error, "connection reset")
	})

	t.Run("panicking customer is counted as failed", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{"a", "b"}, nil)

		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "a").
			DoAndReturn(func(context.Context, string, string) (*domain.Customer, error) {
				panic("corrupt row")
			})
		f.expectRecalculation(&domain.Customer{ID: "b", OrganizationID: "org1"}, nil, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		result, err := f.service.RecalculateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Failures[0].Error, "panic: corrupt row")
	})

	t.Run("empty organization", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{}, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		result, err := f.service.RecalculateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Processed)
		assert.Equal(t, 0, result.Failed)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return(nil, errors.New("boom"))

		result, err := f.service.RecalculateOrganization(ctx, "org1")
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("webhook failure is not propagated", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{"a"}, nil)
		f.expectRecalculation(&domain.Customer{ID: "a", OrganizationID: "org1"}, nil, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("endpoint down"))

		result, err := f.service.RecalculateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
	})

	t.Run("cancellation stops between customers", func(t *testing.T) {
		f := newSegmentationFixture(t)
		cancelCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{"a", "b", "c"}, nil)
		f.customerRepo.EXPECT().GetCustomer(gomock.Any(), "org1", "a").Return(&domain.Customer{ID: "a", OrganizationID: "org1"}, nil)
		f.activityRepo.EXPECT().ListRecentActivities(gomock.Any(), "org1", "a", domain.RecentActivityLimit).Return(nil, nil)
		f.customerRepo.EXPECT().UpdateSegmentation(gomock.Any(), "org1", "a", gomock.Any()).
			DoAndReturn(func(context.Context, string, string, *domain.SegmentationSnapshot) error {
				cancel()
				return nil
			})

		result, err := f.service.RecalculateOrganization(cancelCtx, "org1")
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 0, result.Failed)
	})

	t.Run("missing organization", func(t *testing.T) {
		f := newSegmentationFixture(t)
		_, err := f.service.RecalculateOrganization(ctx, "")
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("concurrent runs of one organization are collapsed", func(t *testing.T) {
		f := newSegmentationFixture(t)
		started := make(chan struct{})
		release := make(chan struct{})

		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").
			DoAndReturn(func(context.Context, string) ([]string, error) {
				close(started)
				<-release
				return []string{}, nil
			}).Times(1)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

		var wg sync.WaitGroup
		results := make([]*domain.RecalculationResult, 2)
		run := func(i int) {
			defer wg.Done()
			result, err := f.service.RecalculateOrganization(ctx, "org1")
			assert.NoError(t, err)
			results[i] = result
		}

		wg.Add(1)
		go run(0)
		<-started

		wg.Add(1)
		go run(1)
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Same(t, results[0], results[1])
	})

	t.Run("joined caller survives the first caller cancelling", func(t *testing.T) {
		f := newSegmentationFixture(t)
		started := make(chan struct{})
		release := make(chan struct{})

		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").
			DoAndReturn(func(context.Context, string) ([]string, error) {
				close(started)
				<-release
				return []string{"a"}, nil
			}).Times(1)
		f.expectRecalculation(&domain.Customer{ID: "a", OrganizationID: "org1"}, nil, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), domain.EventCustomersRecalculated, gomock.Any()).Return(nil).Times(1)

		firstCtx, cancelFirst := context.WithCancel(ctx)
		defer cancelFirst()

		firstErr := make(chan error, 1)
		go func() {
			_, err := f.service.RecalculateOrganization(firstCtx, "org1")
			firstErr <- err
		}()
		<-started

		type outcome struct {
			result *domain.RecalculationResult
			err    error
		}
		joined := make(chan outcome, 1)
		go func() {
			result, err := f.service.RecalculateOrganization(ctx, "org1")
			joined <- outcome{result, err}
		}()
		time.Sleep(100 * time.Millisecond)

		cancelFirst()
		assert.ErrorIs(t, <-firstErr, context.Canceled)

		close(release)
		got := <-joined
		require.NoError(t, got.err)
		require.NotNil(t, got.result)
		assert.Equal(t, 1, got.result.Processed)
		assert.Equal(t, 0, got.result.Failed)
	})
}

func TestSegmentationService_EvaluateOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("recalculates then assigns", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{"a"}, nil)
		f.expectRecalculation(&domain.Customer{ID: "a", OrganizationID: "org1"}, nil, nil)

		summaries := []domain.SegmentAssignmentSummary{
			{SegmentID: "seg1", Name: "At Risk", SegmentType: "AT_RISK", CustomerCount: 1},
		}

		gomock.InOrder(
			f.notifier.EXPECT().Notify(gomock.Any(), domain.EventCustomersRecalculated, gomock.Any()).Return(nil),
			f.segmentService.EXPECT().AssignSegments(gomock.Any(), "org1").Return(summaries, nil),
			f.notifier.EXPECT().Notify(gomock.Any(), domain.EventSegmentsAssigned, gomock.Any()).Return(nil),
		)

		result, err := f.service.EvaluateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, summaries, result.Segments)
	})

	t.Run("assignment failure", func(t *testing.T) {
		f := newSegmentationFixture(t)
		f.customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{}, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), domain.EventCustomersRecalculated, gomock.Any()).Return(nil)
		f.segmentService.EXPECT().AssignSegments(gomock.Any(), "org1").Return(nil, errors.New("tx aborted"))

		_, err := f.service.EvaluateOrganization(ctx, "org1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to assign segments")
	})

	t.Run("without notifier", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		customerRepo := mocks.NewMockCustomerRepository(ctrl)
		segmentService := mocks.NewMockSegmentService(ctrl)
		svc := NewSegmentationService(customerRepo, mocks.NewMockActivityRepository(ctrl), segmentService, nil, setupMockLogger(ctrl))

		customerRepo.EXPECT().ListCustomerIDs(gomock.Any(), "org1").Return([]string{}, nil)
		segmentService.EXPECT().AssignSegments(gomock.Any(), "org1").Return([]domain.SegmentAssignmentSummary{}, nil)

		result, err := svc.EvaluateOrganization(ctx, "org1")
		require.NoError(t, err)
		assert.Empty(t, result.Segments)
	})
}
