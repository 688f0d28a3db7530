package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockCustomerRepository is a mock of CustomerRepository interface
type MockCustomerRepository struct {
	ctrl     *gomock.Controller
	recorder *MockCustomerRepositoryMockRecorder
}

// MockCustomerRepositoryMockRecorder is the mock recorder for MockCustomerRepository
type MockCustomerRepositoryMockRecorder struct {
	mock *MockCustomerRepository
}

// NewMockCustomerRepository creates a new mock instance
func NewMockCustomerRepository(ctrl *gomock.Controller) *MockCustomerRepository {
	mock := &MockCustomerRepository{ctrl: ctrl}
	mock.recorder = &MockCustomerRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockCustomerRepository) EXPECT() *MockCustomerRepositoryMockRecorder {
	return m.recorder
}

// GetCustomer mocks base method
func (m *MockCustomerRepository) GetCustomer(ctx context.Context, organizationID string, customerID string) (*domain.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomer", ctx, organizationID, customerID)
	ret0, _ := ret[0].(*domain.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomer indicates an expected call of GetCustomer
func (mr *MockCustomerRepositoryMockRecorder) GetCustomer(ctx, organizationID, customerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomer", reflect.TypeOf((*MockCustomerRepository)(nil).GetCustomer), ctx, organizationID, customerID)
}

// ListCustomers mocks base method
func (m *MockCustomerRepository) ListCustomers(ctx context.Context, req *domain.ListCustomersRequest) (*domain.ListCustomersResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListCustomers", ctx, req)
	ret0, _ := ret[0].(*domain.ListCustomersResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListCustomers indicates an expected call of ListCustomers
func (mr *MockCustomerRepositoryMockRecorder) ListCustomers(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListCustomers", reflect.TypeOf((*MockCustomerRepository)(nil).ListCustomers), ctx, req)
}

// ListCustomerIDs mocks base method
func (m *MockCustomerRepository) ListCustomerIDs(ctx context.Context, organizationID string) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListCustomerIDs", ctx, organizationID)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListCustomerIDs indicates an expected call of ListCustomerIDs
func (mr *MockCustomerRepositoryMockRecorder) ListCustomerIDs(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListCustomerIDs", reflect.TypeOf((*MockCustomerRepository)(nil).ListCustomerIDs), ctx, organizationID)
}

// ListOrganizationIDs mocks base method
func (m *MockCustomerRepository) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListOrganizationIDs", ctx)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListOrganizationIDs indicates an expected call of ListOrganizationIDs
func (mr *MockCustomerRepositoryMockRecorder) ListOrganizationIDs(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListOrganizationIDs", reflect.TypeOf((*MockCustomerRepository)(nil).ListOrganizationIDs), ctx)
}

// UpsertCustomer mocks base method
func (m *MockCustomerRepository) UpsertCustomer(ctx context.Context, customer *domain.Customer) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpsertCustomer", ctx, customer)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UpsertCustomer indicates an expected call of UpsertCustomer
func (mr *MockCustomerRepositoryMockRecorder) UpsertCustomer(ctx, customer interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpsertCustomer", reflect.TypeOf((*MockCustomerRepository)(nil).UpsertCustomer), ctx, customer)
}

// UpdateSegmentation mocks base method
func (m *MockCustomerRepository) UpdateSegmentation(ctx context.Context, organizationID string, customerID string, snapshot *domain.SegmentationSnapshot) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateSegmentation", ctx, organizationID, customerID, snapshot)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateSegmentation indicates an expected call of UpdateSegmentation
func (mr *MockCustomerRepositoryMockRecorder) UpdateSegmentation(ctx, organizationID, customerID, snapshot interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateSegmentation", reflect.TypeOf((*MockCustomerRepository)(nil).UpdateSegmentation), ctx, organizationID, customerID, snapshot)
}

// ListSegmentationProfiles mocks base method
func (m *MockCustomerRepository) ListSegmentationProfiles(ctx context.Context, organizationID string) ([]*domain.SegmentationProfile, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListSegmentationProfiles", ctx, organizationID)
	ret0, _ := ret[0].([]*domain.SegmentationProfile)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListSegmentationProfiles indicates an expected call of ListSegmentationProfiles
func (mr *MockCustomerRepositoryMockRecorder) ListSegmentationProfiles(ctx, organizationID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListSegmentationProfiles", reflect.TypeOf((*MockCustomerRepository)(nil).ListSegmentationProfiles), ctx, organizationID)
}
