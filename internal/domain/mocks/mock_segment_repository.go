package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockSegmentRepository is a mock of SegmentRepository interface
type MockSegmentRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSegmentRepositoryMockRecorder
}

// MockSegmentRepositoryMockRecorder is the mock recorder for MockSegmentRepository
type MockSegmentRepositoryMockRecorder struct {
	mock *MockSegmentRepository
}

// NewMockSegmentRepository creates a new mock instance
func NewMockSegmentRepository(ctrl *gomock.Controller) *MockSegmentRepository {
	mock := &MockSegmentRepository{ctrl: ctrl}
	mock.recorder = &MockSegmentRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSegmentRepository) EXPECT() *MockSegmentRepositoryMockRecorder {
	return m.recorder
}

// SaveAssignment mocks base method
func (m *MockSegmentRepository) SaveAssignment(ctx context.Context, assignment *domain.SegmentAssignment) (*domain.Segment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveAssignment", ctx, assignment)
	ret0, _ := ret[0].(*domain.Segment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SaveAssignment indicates an expected call of SaveAssignment
func (mr *MockSegmentRepositoryMockRecorder) SaveAssignment(ctx, assignment interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveAssignment", reflect.TypeOf((*MockSegmentRepository)(nil).SaveAssignment), ctx, assignment)
}

// GetSegmentByID mocks base method
func (m *MockSegmentRepository) GetSegmentByID(ctx context.Context, organizationID string, segmentID string) (*domain.Segment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSegmentByID", ctx, organizationID, segmentID)
	ret0, _ := ret[0].(*domain.Segment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSegmentByID indicates an expected call of GetSegmentByID
func (mr *MockSegmentRepositoryMockRecorder) GetSegmentByID(ctx, organizationID, segmentID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSegmentByID", reflect.TypeOf((*MockSegmentRepository)(nil).GetSegmentByID), ctx, organizationID, segmentID)
}

// ListSegments mocks base method
func (m *MockSegmentRepository) ListSegments(ctx context.Context, organizationID string) ([]*domain.Segment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListSegments", ctx, organizationID)
	ret0, _ := ret[0].([]*domain.Segment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListSegments indicates an expected call of ListSegments
func (mr *MockSegmentRepositoryMockRecorder) ListSegments(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListSegments", reflect.TypeOf((*MockSegmentRepository)(nil).ListSegments), ctx, organizationID)
}

// ListSegmentCustomers mocks base method
func (m *MockSegmentRepository) ListSegmentCustomers(ctx context.Context, organizationID string, segmentID string, limit int, offset int) ([]*domain.Customer, int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListSegmentCustomers", ctx, organizationID, segmentID, limit, offset)
	ret0, _ := ret[0].([]*domain.Customer)
	ret1, _ := ret[1].(int)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// ListSegmentCustomers indicates an expected call of ListSegmentCustomers
func (mr *MockSegmentRepositoryMockRecorder) ListSegmentCustomers(ctx, organizationID, segmentID, limit, offset interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListSegmentCustomers", reflect.TypeOf((*MockSegmentRepository)(nil).ListSegmentCustomers), ctx, organizationID, segmentID, limit, offset)
}
