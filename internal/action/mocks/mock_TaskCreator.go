package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	action "github.com/sells-group/workflow-cli/internal/action"
)

// MockTaskCreator is a mock type for the TaskCreator interface.
type MockTaskCreator struct {
	mock.Mock
}

// CreateTask provides a mock function with given fields: ctx, task
func (_m *MockTaskCreator) CreateTask(ctx context.Context, task action.Task) (string, error) {
	ret := _m.Called(ctx, task)

	if len(ret) == 0 {
		panic("no return value specified for CreateTask")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, action.Task) (string, error)); ok {
		return rf(ctx, task)
	}
	if rf, ok := ret.Get(0).(func(context.Context, action.Task) string); ok {
		r0 = rf(ctx, task)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, action.Task) error); ok {
		r1 = rf(ctx, task)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockTaskCreator creates a new instance of MockTaskCreator.
func NewMockTaskCreator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTaskCreator {
	m := &MockTaskCreator{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
