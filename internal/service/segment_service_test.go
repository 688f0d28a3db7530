package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/domain/mocks"
	"github.com/callmaker24/segmentation/pkg/scoring"
)

func sampleProfiles() []*domain.SegmentationProfile {
	return []*domain.SegmentationProfile{
		profile("a", 4000, 80, scoring.TagChampion, scoring.TagHighValue, scoring.TagVIP, scoring.TagFrequentBuyer),
		profile("b", 0, 0, scoring.TagAtRisk, scoring.TagDormant, scoring.TagLowValue),
		profile("c", 1000, 90, scoring.TagHighlyEngaged, scoring.TagVIP),
	}
}

// captureAssignments records every SaveAssignment call keyed by segment type
func captureAssignments(repo *mocks.MockSegmentRepository, into map[string]*domain.SegmentAssignment) *gomock.Call {
	return repo.EXPECT().SaveAssignment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *domain.SegmentAssignment) (*domain.Segment, error) {
			into[a.Definition.SegmentType] = a
			return &domain.Segment{
				ID:             "seg-" + a.Definition.SegmentType,
				OrganizationID: a.OrganizationID,
				Name:           a.Definition.Name,
				SegmentType:    a.Definition.SegmentType,
				IsAIPowered:    true,
				AutoUpdate:     true,
				CustomerCount:  a.Stats.CustomerCount,
			}, nil
		})
}

func TestSegmentService_AssignSegments(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, catalog domain.SegmentCatalog) (*SegmentService, *mocks.MockSegmentRepository, *mocks.MockCustomerRepository) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)

		segmentRepo := mocks.NewMockSegmentRepository(ctrl)
		customerRepo := mocks.NewMockCustomerRepository(ctrl)
		svc := NewSegmentService(segmentRepo, customerRepo, catalog, setupMockLogger(ctrl))
		svc.SetClock(func() time.Time { return testNow })
		return svc, segmentRepo, customerRepo
	}

	t.Run("default catalog membership and stats", func(t *testing.T) {
		svc, segmentRepo, customerRepo := setup(t, nil)
		customerRepo.EXPECT().ListSegmentationProfiles(gomock.Any(), "org1").Return(sampleProfiles(), nil)

		saved := make(map[string]*domain.SegmentAssignment)
		captureAssignments(segmentRepo, saved).Times(6)

		summaries, err := svc.AssignSegments(ctx, "org1")
		require.NoError(t, err)
		require.Len(t, summaries, 6)

		assert.Equal(t, []string{"a"}, saved["CHAMPIONS"].CustomerIDs)
		assert.Equal(t, []string{"a", "c"}, saved["HIGH_VALUE"].CustomerIDs)
		assert.Equal(t, domain.SegmentStats{CustomerCount: 2, AvgLTV: 2500, AvgEngagement: 85}, saved["HIGH_VALUE"].Stats)
		assert.Equal(t, []string{"b"}, saved["AT_RISK"].CustomerIDs)
		assert.Equal(t, []string{"c"}, saved["HIGHLY_ENGAGED"].CustomerIDs)
		assert.Equal(t, []string{"a"}, saved["FREQUENT_BUYERS"].CustomerIDs)

		// no match: zero stats, never NaN
		assert.Empty(t, saved["NEW_CUSTOMERS"].CustomerIDs)
		assert.Equal(t, domain.SegmentStats{}, saved["NEW_CUSTOMERS"].Stats)

		for _, a := range saved {
			assert.Equal(t, "org1", a.OrganizationID)
			assert.Equal(t, testNow, a.CalculatedAt)
		}

		assert.Equal(t, "seg-CHAMPIONS", summaries[0].SegmentID)
		assert.Equal(t, "Champions", summaries[0].Name)
		assert.Equal(t, 2500.0, summaries[1].AvgLTV)
	})

	t.Run("idempotent on unchanged tags", func(t *testing.T) {
		svc, segmentRepo, customerRepo := setup(t, nil)
		customerRepo.EXPECT().ListSegmentationProfiles(gomock.Any(), "org1").Return(sampleProfiles(), nil).Times(2)

		first := make(map[string]*domain.SegmentAssignment)
		second := make(map[string]*domain.SegmentAssignment)
		gomock.InOrder(
			captureAssignments(segmentRepo, first).Times(6),
			captureAssignments(segmentRepo, second).Times(6),
		)

		firstSummaries, err := svc.AssignSegments(ctx, "org1")
		require.NoError(t, err)
		secondSummaries, err := svc.AssignSegments(ctx, "org1")
		require.NoError(t, err)

		assert.Equal(t, firstSummaries, secondSummaries)
		assert.Equal(t, first, second)
	})

	t.Run("injected catalog", func(t *testing.T) {
		catalog := domain.SegmentCatalog{
			{Name: "Sleeping Giants", SegmentType: "SLEEPING_GIANTS", Tags: []string{scoring.TagDormant}},
		}
		svc, segmentRepo, customerRepo := setup(t, catalog)
		customerRepo.EXPECT().ListSegmentationProfiles(gomock.Any(), "org1").Return(sampleProfiles(), nil)

		saved := make(map[string]*domain.SegmentAssignment)
		captureAssignments(segmentRepo, saved).Times(1)

		summaries, err := svc.AssignSegments(ctx, "org1")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, []string{"b"}, saved["SLEEPING_GIANTS"].CustomerIDs)
		assert.Equal(t, catalog, svc.Catalog())
	})

	t.Run("save failure stops the pass", func(t *testing.T) {
		svc, segmentRepo, customerRepo := setup(t, nil)
		customerRepo.EXPECT().ListSegmentationProfiles(gomock.Any(), "org1").Return(sampleProfiles(), nil)
		segmentRepo.EXPECT().SaveAssignment(gomock.Any(), gomock.Any()).Return(nil, errors.New("serialization failure"))

		_, err := svc.AssignSegments(ctx, "org1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to assign segment CHAMPIONS")
	})

	t.Run("profile listing failure", func(t *testing.T) {
		svc, _, customerRepo := setup(t, nil)
		customerRepo.EXPECT().ListSegmentationProfiles(gomock.Any(), "org1").Return(nil, errors.New("boom"))

		_, err := svc.AssignSegments(ctx, "org1")
		require.Error(t, err)
	})

	t.Run("missing organization", func(t *testing.T) {
		svc, _, _ := setup(t, nil)
		_, err := svc.AssignSegments(ctx, "")
		assert.True(t, domain.IsValidationError(err))
	})
}

func TestSegmentService_ReadOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	segmentRepo := mocks.NewMockSegmentRepository(ctrl)
	svc := NewSegmentService(segmentRepo, mocks.NewMockCustomerRepository(ctrl), nil, setupMockLogger(ctrl))
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		segments := []*domain.Segment{{ID: "seg1", Name: "At Risk"}}
		segmentRepo.EXPECT().ListSegments(gomock.Any(), "org1").Return(segments, nil)

		result, err := svc.ListSegments(ctx, "org1")
		require.NoError(t, err)
		assert.Equal(t, segments, result)
	})

	t.Run("get not found", func(t *testing.T) {
		segmentRepo.EXPECT().GetSegmentByID(gomock.Any(), "org1", "nope").
			Return(nil, &domain.ErrSegmentNotFound{Message: "segment nope not found"})

		_, err := svc.GetSegment(ctx, "org1", "nope")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("customers of a segment", func(t *testing.T) {
		segment := &domain.Segment{ID: "seg1", OrganizationID: "org1"}
		customers := []*domain.Customer{{ID: "a"}, {ID: "b"}}
		segmentRepo.EXPECT().GetSegmentByID(gomock.Any(), "org1", "seg1").Return(segment, nil)
		segmentRepo.EXPECT().ListSegmentCustomers(gomock.Any(), "org1", "seg1", 10, 0).Return(customers, 2, nil)

		resp, err := svc.GetSegmentCustomers(ctx, &domain.GetSegmentCustomersRequest{
			OrganizationID: "org1", SegmentID: "seg1", Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, segment, resp.Segment)
		assert.Equal(t, 2, resp.TotalCount)
		assert.Len(t, resp.Customers, 2)
	})

	t.Run("customers of an unknown segment", func(t *testing.T) {
		segmentRepo.EXPECT().GetSegmentByID(gomock.Any(), "org1", "nope").
			Return(nil, &domain.ErrSegmentNotFound{Message: "segment nope not found"})

		_, err := svc.GetSegmentCustomers(ctx, &domain.GetSegmentCustomersRequest{OrganizationID: "org1", SegmentID: "nope"})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("default catalog", func(t *testing.T) {
		assert.Equal(t, domain.DefaultSegmentCatalog(), svc.Catalog())
	})
}
