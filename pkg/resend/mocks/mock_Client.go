// Package mocks provides test doubles for the Resend client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	resend "github.com/sells-group/workflow-cli/pkg/resend"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Send provides a mock function with given fields: ctx, req
func (_m *MockClient) Send(ctx context.Context, req resend.SendRequest) (*resend.SendResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 *resend.SendResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, resend.SendRequest) (*resend.SendResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, resend.SendRequest) *resend.SendResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*resend.SendResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, resend.SendRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
