package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockNoteWriter is a mock type for the NoteWriter interface.
type MockNoteWriter struct {
	mock.Mock
}

// CreateNote provides a mock function with given fields: ctx, businessPartnerID, subject, body
func (_m *MockNoteWriter) CreateNote(ctx context.Context, businessPartnerID string, subject string, body string) (string, error) {
	ret := _m.Called(ctx, businessPartnerID, subject, body)

	if len(ret) == 0 {
		panic("no return value specified for CreateNote")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) (string, error)); ok {
		return rf(ctx, businessPartnerID, subject, body)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) string); ok {
		r0 = rf(ctx, businessPartnerID, subject, body)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string, string) error); ok {
		r1 = rf(ctx, businessPartnerID, subject, body)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockNoteWriter creates a new instance of MockNoteWriter.
func NewMockNoteWriter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNoteWriter {
	m := &MockNoteWriter{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
