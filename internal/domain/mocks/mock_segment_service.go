package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockSegmentService is a mock of SegmentService interface
type MockSegmentService struct {
	ctrl     *gomock.Controller
	recorder *MockSegmentServiceMockRecorder
}

// MockSegmentServiceMockRecorder is the mock recorder for MockSegmentService
type MockSegmentServiceMockRecorder struct {
	mock *MockSegmentService
}

// NewMockSegmentService creates a new mock instance
func NewMockSegmentService(ctrl *gomock.Controller) *MockSegmentService {
	mock := &MockSegmentService{ctrl: ctrl}
	mock.recorder = &MockSegmentServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSegmentService) EXPECT() *MockSegmentServiceMockRecorder {
	return m.recorder
}

// AssignSegments mocks base method
func (m *MockSegmentService) AssignSegments(ctx context.Context, organizationID string) ([]domain.SegmentAssignmentSummary, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AssignSegments", ctx, organizationID)
	ret0, _ := ret[0].([]domain.SegmentAssignmentSummary)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// AssignSegments indicates an expected call of AssignSegments
func (mr *MockSegmentServiceMockRecorder) AssignSegments(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AssignSegments", reflect.TypeOf((*MockSegmentService)(nil).AssignSegments), ctx, organizationID)
}

// ListSegments mocks base method
func (m *MockSegmentService) ListSegments(ctx context.Context, organizationID string) ([]*domain.Segment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListSegments", ctx, organizationID)
	ret0, _ := ret[0].([]*domain.Segment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListSegments indicates an expected call of ListSegments
func (mr *MockSegmentServiceMockRecorder) ListSegments(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListSegments", reflect.TypeOf((*MockSegmentService)(nil).ListSegments), ctx, organizationID)
}

// GetSegment mocks base method
func (m *MockSegmentService) GetSegment(ctx context.Context, organizationID string, segmentID string) (*domain.Segment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSegment", ctx, organizationID, segmentID)
	ret0, _ := ret[0].(*domain.Segment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSegment indicates an expected call of GetSegment
func (mr *MockSegmentServiceMockRecorder) GetSegment(ctx, organizationID, segmentID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSegment", reflect.TypeOf((*MockSegmentService)(nil).GetSegment), ctx, organizationID, segmentID)
}

// GetSegmentCustomers mocks base method
func (m *MockSegmentService) GetSegmentCustomers(ctx context.Context, req *domain.GetSegmentCustomersRequest) (*domain.GetSegmentCustomersResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSegmentCustomers", ctx, req)
	ret0, _ := ret[0].(*domain.GetSegmentCustomersResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSegmentCustomers indicates an expected call of GetSegmentCustomers
func (mr *MockSegmentServiceMockRecorder) GetSegmentCustomers(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSegmentCustomers", reflect.TypeOf((*MockSegmentService)(nil).GetSegmentCustomers), ctx, req)
}
