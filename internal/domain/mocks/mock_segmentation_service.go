package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockSegmentationService is a mock of SegmentationService interface
type MockSegmentationService struct {
	ctrl     *gomock.Controller
	recorder *MockSegmentationServiceMockRecorder
}

// MockSegmentationServiceMockRecorder is the mock recorder for MockSegmentationService
type MockSegmentationServiceMockRecorder struct {
	mock *MockSegmentationService
}

// NewMockSegmentationService creates a new mock instance
func NewMockSegmentationService(ctrl *gomock.Controller) *MockSegmentationService {
	mock := &MockSegmentationService{ctrl: ctrl}
	mock.recorder = &MockSegmentationServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSegmentationService) EXPECT() *MockSegmentationServiceMockRecorder {
	return m.recorder
}

// RecalculateCustomer mocks base method
func (m *MockSegmentationService) RecalculateCustomer(ctx context.Context, organizationID string, customerID string) (*domain.SegmentationSnapshot, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecalculateCustomer", ctx, organizationID, customerID)
	ret0, _ := ret[0].(*domain.SegmentationSnapshot)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RecalculateCustomer indicates an expected call of RecalculateCustomer
func (mr *MockSegmentationServiceMockRecorder) RecalculateCustomer(ctx, organizationID, customerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecalculateCustomer", reflect.TypeOf((*MockSegmentationService)(nil).RecalculateCustomer), ctx, organizationID, customerID)
}

// RecalculateOrganization mocks base method
func (m *MockSegmentationService) RecalculateOrganization(ctx context.Context, organizationID string) (*domain.RecalculationResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecalculateOrganization", ctx, organizationID)
	ret0, _ := ret[0].(*domain.RecalculationResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RecalculateOrganization indicates an expected call of RecalculateOrganization
func (mr *MockSegmentationServiceMockRecorder) RecalculateOrganization(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecalculateOrganization", reflect.TypeOf((*MockSegmentationService)(nil).RecalculateOrganization), ctx, organizationID)
}

// EvaluateOrganization mocks base method
func (m *MockSegmentationService) EvaluateOrganization(ctx context.Context, organizationID string) (*domain.EvaluationResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EvaluateOrganization", ctx, organizationID)
	ret0, _ := ret[0].(*domain.EvaluationResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// EvaluateOrganization indicates an expected call of EvaluateOrganization
func (mr *MockSegmentationServiceMockRecorder) EvaluateOrganization(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EvaluateOrganization", reflect.TypeOf((*MockSegmentationService)(nil).EvaluateOrganization), ctx, organizationID)
}
