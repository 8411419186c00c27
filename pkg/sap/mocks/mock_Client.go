// Package mocks provides test doubles for the SAP client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	sap "github.com/sells-group/workflow-cli/pkg/sap"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// CreateNote provides a mock function with given fields: ctx, note
func (_m *MockClient) CreateNote(ctx context.Context, note sap.Note) (string, error) {
	ret := _m.Called(ctx, note)

	if len(ret) == 0 {
		panic("no return value specified for CreateNote")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, sap.Note) (string, error)); ok {
		return rf(ctx, note)
	}
	if rf, ok := ret.Get(0).(func(context.Context, sap.Note) string); ok {
		r0 = rf(ctx, note)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, sap.Note) error); ok {
		r1 = rf(ctx, note)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// FindBusinessPartner provides a mock function with given fields: ctx, companyName
func (_m *MockClient) FindBusinessPartner(ctx context.Context, companyName string) (*sap.BusinessPartner, error) {
	ret := _m.Called(ctx, companyName)

	if len(ret) == 0 {
		panic("no return value specified for FindBusinessPartner")
	}

	var r0 *sap.BusinessPartner
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*sap.BusinessPartner, error)); ok {
		return rf(ctx, companyName)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *sap.BusinessPartner); ok {
		r0 = rf(ctx, companyName)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*sap.BusinessPartner)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, companyName)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SalesOrders provides a mock function with given fields: ctx, partnerID, limit
func (_m *MockClient) SalesOrders(ctx context.Context, partnerID string, limit int) ([]sap.SalesOrder, error) {
	ret := _m.Called(ctx, partnerID, limit)

	if len(ret) == 0 {
		panic("no return value specified for SalesOrders")
	}

	var r0 []sap.SalesOrder
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]sap.SalesOrder, error)); ok {
		return rf(ctx, partnerID, limit)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) []sap.SalesOrder); ok {
		r0 = rf(ctx, partnerID, limit)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]sap.SalesOrder)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, partnerID, limit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ServiceOrders provides a mock function with given fields: ctx, partnerID, limit
func (_m *MockClient) ServiceOrders(ctx context.Context, partnerID string, limit int) ([]sap.ServiceOrder, error) {
	ret := _m.Called(ctx, partnerID, limit)

	if len(ret) == 0 {
		panic("no return value specified for ServiceOrders")
	}

	var r0 []sap.ServiceOrder
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]sap.ServiceOrder, error)); ok {
		return rf(ctx, partnerID, limit)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) []sap.ServiceOrder); ok {
		r0 = rf(ctx, partnerID, limit)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]sap.ServiceOrder)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, partnerID, limit)
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
