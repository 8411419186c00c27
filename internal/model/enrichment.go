package model

import (
	"strings"
	"time"
)

// Order is a sales or service order summary from the ERP.
type Order struct {
	ID          string     `json:"id" yaml:"id"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	NetAmount   float64    `json:"net_amount,omitempty" yaml:"net_amount,omitempty"`
	Currency    string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Open reports whether the order has not been completed or cancelled.
func (o Order) Open() bool {
	switch strings.ToLower(o.Status) {
	case "completed", "complete", "closed", "cancelled", "canceled", "c":
		return false
	default:
		return true
	}
}

// Enrichment is the secondary business context for a record. A nil
// *Enrichment means the lookup came back absent.
type Enrichment struct {
	BusinessPartnerID string     `json:"business_partner_id,omitempty" yaml:"business_partner_id,omitempty"`
	Name              string     `json:"name,omitempty" yaml:"name,omitempty"`
	CreditRating      string     `json:"credit_rating,omitempty" yaml:"credit_rating,omitempty"`
	PaymentTerms      string     `json:"payment_terms,omitempty" yaml:"payment_terms,omitempty"`
	TotalOrders       int        `json:"total_orders,omitempty" yaml:"total_orders,omitempty"`
	TotalRevenue      float64    `json:"total_revenue,omitempty" yaml:"total_revenue,omitempty"`
	LastOrderDate     *time.Time `json:"last_order_date,omitempty" yaml:"last_order_date,omitempty"`
	OpenOrders        int        `json:"open_orders,omitempty" yaml:"open_orders,omitempty"`
	CustomerSince     string     `json:"customer_since,omitempty" yaml:"customer_since,omitempty"`
	IndustrySegment   string     `json:"industry_segment,omitempty" yaml:"industry_segment,omitempty"`
	AccountStatus     string     `json:"account_status,omitempty" yaml:"account_status,omitempty"`
	SalesOrders       []Order    `json:"sales_orders,omitempty" yaml:"sales_orders,omitempty"`
	ServiceOrders     []Order    `json:"service_orders,omitempty" yaml:"service_orders,omitempty"`
}

// Clone returns a deep copy of e. A nil receiver yields nil.
func (e *Enrichment) Clone() *Enrichment {
	if e == nil {
		return nil
	}
	out := *e
	out.LastOrderDate = cloneTime(e.LastOrderDate)
	out.SalesOrders = cloneOrders(e.SalesOrders)
	out.ServiceOrders = cloneOrders(e.ServiceOrders)
	return &out
}

func cloneOrders(in []Order) []Order {
	if in == nil {
		return nil
	}
	out := make([]Order, len(in))
	for i, o := range in {
		o.CreatedAt = cloneTime(o.CreatedAt)
		out[i] = o
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// IsCustomer reports whether the partner has an existing purchasing
// relationship.
func (e *Enrichment) IsCustomer() bool {
	if e == nil || e.BusinessPartnerID == "" {
		return false
	}
	return e.TotalOrders > 0 || strings.EqualFold(e.AccountStatus, "active")
}

// HasOpenOrders reports whether any sales or service order is still open.
func (e *Enrichment) HasOpenOrders() bool {
	if e == nil {
		return false
	}
	if e.OpenOrders > 0 {
		return true
	}
	for _, o := range e.SalesOrders {
		if o.Open() {
			return true
		}
	}
	for _, o := range e.ServiceOrders {
		if o.Open() {
			return true
		}
	}
	return false
}

// TotalOrderValue sums the net amount of all listed orders.
func (e *Enrichment) TotalOrderValue() float64 {
	if e == nil {
		return 0
	}
	var sum float64
	for _, o := range e.SalesOrders {
		sum += o.NetAmount
	}
	for _, o := range e.ServiceOrders {
		sum += o.NetAmount
	}
	return sum
}
