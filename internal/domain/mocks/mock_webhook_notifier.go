package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockWebhookNotifier is a mock of WebhookNotifier interface
type MockWebhookNotifier struct {
	ctrl     *gomock.Controller
	recorder *MockWebhookNotifierMockRecorder
}

// MockWebhookNotifierMockRecorder is the mock recorder for MockWebhookNotifier
type MockWebhookNotifierMockRecorder struct {
	mock *MockWebhookNotifier
}

// NewMockWebhookNotifier creates a new mock instance
func NewMockWebhookNotifier(ctrl *gomock.Controller) *MockWebhookNotifier {
	mock := &MockWebhookNotifier{ctrl: ctrl}
	mock.recorder = &MockWebhookNotifierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockWebhookNotifier) EXPECT() *MockWebhookNotifierMockRecorder {
	return m.recorder
}

// Notify mocks base method
func (m *MockWebhookNotifier) Notify(ctx context.Context, eventType string, payload interface{}) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Notify", ctx, eventType, payload)
	ret0, _ := ret[0].(error)
	return ret0
}

// Notify indicates an expected call of Notify
func (mr *MockWebhookNotifierMockRecorder) Notify(ctx, eventType, payload interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Notify", reflect.TypeOf((*MockWebhookNotifier)(nil).Notify), ctx, eventType, payload)
}
