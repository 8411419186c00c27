package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockCommenter is a mock type for the Commenter interface.
type MockCommenter struct {
	mock.Mock
}

// PostComment provides a mock function with given fields: ctx, caseID, body
func (_m *MockCommenter) PostComment(ctx context.Context, caseID string, body string) (string, error) {
	ret := _m.Called(ctx, caseID, body)

	if len(ret) == 0 {
		panic("no return value specified for PostComment")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (string, error)); ok {
		return rf(ctx, caseID, body)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) string); ok {
		r0 = rf(ctx, caseID, body)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, caseID, body)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockCommenter creates a new instance of MockCommenter.
func NewMockCommenter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommenter {
	m := &MockCommenter{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
