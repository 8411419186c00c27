// Package mocks provides test doubles for the lead scorer.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/workflow-cli/internal/model"
)

// MockLLMScorer is a mock type for the LLMScorer interface.
type MockLLMScorer struct {
	mock.Mock
}

// AnalyzeLead provides a mock function with given fields: ctx, lead, enr, rubric
func (_m *MockLLMScorer) AnalyzeLead(ctx context.Context, lead model.Lead, enr *model.Enrichment, rubric model.ScoreBreakdown) (*model.LLMAnalysis, error) {
	ret := _m.Called(ctx, lead, enr, rubric)

	if len(ret) == 0 {
		panic("no return value specified for AnalyzeLead")
	}

	var r0 *model.LLMAnalysis
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Lead, *model.Enrichment, model.ScoreBreakdown) (*model.LLMAnalysis, error)); ok {
		return rf(ctx, lead, enr, rubric)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.Lead, *model.Enrichment, model.ScoreBreakdown) *model.LLMAnalysis); ok {
		r0 = rf(ctx, lead, enr, rubric)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.LLMAnalysis)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.Lead, *model.Enrichment, model.ScoreBreakdown) error); ok {
		r1 = rf(ctx, lead, enr, rubric)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockLLMScorer creates a new instance of MockLLMScorer.
func NewMockLLMScorer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLLMScorer {
	m := &MockLLMScorer{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
