// Package mocks provides test doubles for the pipeline collaborators.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/workflow-cli/internal/model"
)

// MockRecordSource is a mock type for the RecordSource interface.
type MockRecordSource struct {
	mock.Mock
}

// Fetch provides a mock function with given fields: ctx, kind, identifier
func (_m *MockRecordSource) Fetch(ctx context.Context, kind model.WorkflowKind, identifier string) (*model.Record, error) {
	ret := _m.Called(ctx, kind, identifier)

	if len(ret) == 0 {
		panic("no return value specified for Fetch")
	}

	var r0 *model.Record
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.WorkflowKind, string) (*model.Record, error)); ok {
		return rf(ctx, kind, identifier)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.WorkflowKind, string) *model.Record); ok {
		r0 = rf(ctx, kind, identifier)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Record)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.WorkflowKind, string) error); ok {
		r1 = rf(ctx, kind, identifier)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockRecordSource creates a new instance of MockRecordSource.
func NewMockRecordSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecordSource {
	m := &MockRecordSource{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
