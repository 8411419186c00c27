package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/workflow-cli/internal/model"
)

// MockEnricher is a mock type for the Enricher interface.
type MockEnricher struct {
	mock.Mock
}

// Enrich provides a mock function with given fields: ctx, rec
func (_m *MockEnricher) Enrich(ctx context.Context, rec model.Record) (*model.Enrichment, error) {
	ret := _m.Called(ctx, rec)

	if len(ret) == 0 {
		panic("no return value specified for Enrich")
	}

	var r0 *model.Enrichment
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Record) (*model.Enrichment, error)); ok {
		return rf(ctx, rec)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.Record) *model.Enrichment); ok {
		r0 = rf(ctx, rec)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Enrichment)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.Record) error); ok {
		r1 = rf(ctx, rec)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockEnricher creates a new instance of MockEnricher.
func NewMockEnricher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEnricher {
	m := &MockEnricher{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
