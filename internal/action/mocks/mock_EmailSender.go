package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock type for the EmailSender interface.
type MockEmailSender struct {
	mock.Mock
}

// Send provides a mock function with given fields: ctx, recipient, subject, body
func (_m *MockEmailSender) Send(ctx context.Context, recipient string, subject string, body string) (string, error) {
	ret := _m.Called(ctx, recipient, subject, body)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) (string, error)); ok {
		return rf(ctx, recipient, subject, body)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) string); ok {
		r0 = rf(ctx, recipient, subject, body)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string, string) error); ok {
		r1 = rf(ctx, recipient, subject, body)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockEmailSender creates a new instance of MockEmailSender.
func NewMockEmailSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEmailSender {
	m := &MockEmailSender{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
