// Package mocks provides test doubles for the action executor's adapters.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/workflow-cli/internal/model"
)

// MockRecordUpdater is a mock type for the RecordUpdater interface.
type MockRecordUpdater struct {
	mock.Mock
}

// UpdateRecord provides a mock function with given fields: ctx, kind, id, fields
func (_m *MockRecordUpdater) UpdateRecord(ctx context.Context, kind model.WorkflowKind, id string, fields map[string]any) error {
	ret := _m.Called(ctx, kind, id, fields)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRecord")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.WorkflowKind, string, map[string]any) error); ok {
		r0 = rf(ctx, kind, id, fields)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockRecordUpdater creates a new instance of MockRecordUpdater.
func NewMockRecordUpdater(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecordUpdater {
	m := &MockRecordUpdater{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
