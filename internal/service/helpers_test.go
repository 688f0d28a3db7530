package service

import (
	"time"

	"github.com/golang/mock/gomock"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/domain/mocks"
	"github.com/callmaker24/segmentation/pkg/scoring"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupMockLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return mockLogger
}

func daysAgo(days int) *time.Time {
	t := testNow.AddDate(0, 0, -days)
	return &t
}

func activitiesOf(counts map[domain.ActivityType]int) []*domain.Activity {
	var activities []*domain.Activity
	for activityType, n := range counts {
		for i := 0; i < n; i++ {
			activities = append(activities, &domain.Activity{Type: activityType, CreatedAt: testNow})
		}
	}
	return activities
}

func profile(id string, ltv float64, engagement int, tags ...string) *domain.SegmentationProfile {
	return &domain.SegmentationProfile{
		CustomerID:      id,
		Tags:            scoring.NewTagSet(tags...),
		PredictedLTV:    ltv,
		EngagementScore: engagement,
	}
}
