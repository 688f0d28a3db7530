package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockActivityRepository is a mock of ActivityRepository interface
type MockActivityRepository struct {
	ctrl     *gomock.Controller
	recorder *MockActivityRepositoryMockRecorder
}

// MockActivityRepositoryMockRecorder is the mock recorder for MockActivityRepository
type MockActivityRepositoryMockRecorder struct {
	mock *MockActivityRepository
}

// NewMockActivityRepository creates a new mock instance
func NewMockActivityRepository(ctrl *gomock.Controller) *MockActivityRepository {
	mock := &MockActivityRepository{ctrl: ctrl}
	mock.recorder = &MockActivityRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockActivityRepository) EXPECT() *MockActivityRepositoryMockRecorder {
	return m.recorder
}

// ListRecentActivities mocks base method
func (m *MockActivityRepository) ListRecentActivities(ctx context.Context, organizationID string, customerID string, limit int) ([]*domain.Activity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListRecentActivities", ctx, organizationID, customerID, limit)
	ret0, _ := ret[0].([]*domain.Activity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListRecentActivities indicates an expected call of ListRecentActivities
func (mr *MockActivityRepositoryMockRecorder) ListRecentActivities(ctx, organizationID, customerID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListRecentActivities", reflect.TypeOf((*MockActivityRepository)(nil).ListRecentActivities), ctx, organizationID, customerID, limit)
}

// CreateActivity mocks base method
func (m *MockActivityRepository) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateActivity", ctx, activity)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateActivity indicates an expected call of CreateActivity
func (mr *MockActivityRepositoryMockRecorder) CreateActivity(ctx, activity interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateActivity", reflect.TypeOf((*MockActivityRepository)(nil).CreateActivity), ctx, activity)
}
