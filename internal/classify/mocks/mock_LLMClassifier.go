// Package mocks provides test doubles for the ticket classifier.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/workflow-cli/internal/model"
)

// MockLLMClassifier is a mock type for the LLMClassifier interface.
type MockLLMClassifier struct {
	mock.Mock
}

// ClassifyTicket provides a mock function with given fields: ctx, ticket, enr, rules
func (_m *MockLLMClassifier) ClassifyTicket(ctx context.Context, ticket model.Ticket, enr *model.Enrichment, rules model.Classification) (*model.Classification, error) {
	ret := _m.Called(ctx, ticket, enr, rules)

	if len(ret) == 0 {
		panic("no return value specified for ClassifyTicket")
	}

	var r0 *model.Classification
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Ticket, *model.Enrichment, model.Classification) (*model.Classification, error)); ok {
		return rf(ctx, ticket, enr, rules)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.Ticket, *model.Enrichment, model.Classification) *model.Classification); ok {
		r0 = rf(ctx, ticket, enr, rules)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Classification)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.Ticket, *model.Enrichment, model.Classification) error); ok {
		r1 = rf(ctx, ticket, enr, rules)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockLLMClassifier creates a new instance of MockLLMClassifier.
func NewMockLLMClassifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLLMClassifier {
	m := &MockLLMClassifier{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
