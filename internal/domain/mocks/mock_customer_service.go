package mocks

import (
	"context"
	"reflect"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockCustomerService is a mock of CustomerService interface
type MockCustomerService struct {
	ctrl     *gomock.Controller
	recorder *MockCustomerServiceMockRecorder
}

// MockCustomerServiceMockRecorder is the mock recorder for MockCustomerService
type MockCustomerServiceMockRecorder struct {
	mock *MockCustomerService
}

// NewMockCustomerService creates a new mock instance
func NewMockCustomerService(ctrl *gomock.Controller) *MockCustomerService {
	mock := &MockCustomerService{ctrl: ctrl}
	mock.recorder = &MockCustomerServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockCustomerService) EXPECT() *MockCustomerServiceMockRecorder {
	return m.recorder
}

// UpsertCustomer mocks base method
func (m *MockCustomerService) UpsertCustomer(ctx context.Context, customer *domain.Customer) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpsertCustomer", ctx, customer)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UpsertCustomer indicates an expected call of UpsertCustomer
func (mr *MockCustomerServiceMockRecorder) UpsertCustomer(ctx, customer interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpsertCustomer", reflect.TypeOf((*MockCustomerService)(nil).UpsertCustomer), ctx, customer)
}

// GetCustomer mocks base method
func (m *MockCustomerService) GetCustomer(ctx context.Context, organizationID string, customerID string) (*domain.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomer", ctx, organizationID, customerID)
	ret0, _ := ret[0].(*domain.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomer indicates an expected call of GetCustomer
func (mr *MockCustomerServiceMockRecorder) GetCustomer(ctx, organizationID, customerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomer", reflect.TypeOf((*MockCustomerService)(nil).GetCustomer), ctx, organizationID, customerID)
}

// ListCustomers mocks base method
func (m *MockCustomerService) ListCustomers(ctx context.Context, req *domain.ListCustomersRequest) (*domain.ListCustomersResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListCustomers", ctx, req)
	ret0, _ := ret[0].(*domain.ListCustomersResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListCustomers indicates an expected call of ListCustomers
func (mr *MockCustomerServiceMockRecorder) ListCustomers(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListCustomers", reflect.TypeOf((*MockCustomerService)(nil).ListCustomers), ctx, req)
}

// RecordActivity mocks base method
func (m *MockCustomerService) RecordActivity(ctx context.Context, activity *domain.Activity) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordActivity", ctx, activity)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordActivity indicates an expected call of RecordActivity
func (mr *MockCustomerServiceMockRecorder) RecordActivity(ctx, activity interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordActivity", reflect.TypeOf((*MockCustomerService)(nil).RecordActivity), ctx, activity)
}
