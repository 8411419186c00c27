package sap

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// BusinessPartner is an A_BusinessPartner entity. Credit and account fields
// come from customer-specific extensions and may be empty.
type BusinessPartner struct {
	BusinessPartner         string  `json:"BusinessPartner"`
	BusinessPartnerFullName string  `json:"BusinessPartnerFullName"`
	BusinessPartnerCategory string  `json:"BusinessPartnerCategory,omitempty"`
	Industry                string  `json:"Industry,omitempty"`
	CreditRating            string  `json:"CreditRating,omitempty"`
	PaymentTerms            string  `json:"PaymentTerms,omitempty"`
	CustomerSince           Date    `json:"CustomerSince,omitempty"`
	AccountStatus           string  `json:"AccountStatus,omitempty"`
	TotalRevenue            Decimal `json:"TotalRevenue,omitempty"`
}

// SalesOrder is an A_SalesOrder entity.
type SalesOrder struct {
	SalesOrder             string  `json:"SalesOrder"`
	SalesOrderType         string  `json:"SalesOrderType,omitempty"`
	SoldToParty            string  `json:"SoldToParty"`
	CreationDate           Date    `json:"CreationDate,omitempty"`
	TotalNetAmount         Decimal `json:"TotalNetAmount"`
	TransactionCurrency    string  `json:"TransactionCurrency,omitempty"`
	OverallSDProcessStatus string  `json:"OverallSDProcessStatus,omitempty"`
	OverallDeliveryStatus  string  `json:"OverallDeliveryStatus,omitempty"`
	OverallBillingStatus   string  `json:"OverallBillingStatus,omitempty"`
}

// Open reports whether the order is not yet fully processed (SD status A or B).
func (o SalesOrder) Open() bool {
	return o.OverallSDProcessStatus == "A" || o.OverallSDProcessStatus == "B"
}

// ServiceOrder is an A_ServiceOrder entity.
type ServiceOrder struct {
	ServiceOrder            string `json:"ServiceOrder"`
	ServiceOrderType        string `json:"ServiceOrderType,omitempty"`
	ServiceOrderDescription string `json:"ServiceOrderDescription,omitempty"`
	SoldToParty             string `json:"SoldToParty"`
	ServiceOrderDate        Date   `json:"ServiceOrderDate,omitempty"`
	ServiceOrderPriority    string `json:"ServiceOrderPriority,omitempty"`
	ServiceOrderStatus      string `json:"ServiceOrderStatus,omitempty"`
}

// Open reports whether the service order is still open or in process.
func (o ServiceOrder) Open() bool {
	return o.ServiceOrderStatus == "OPEN" || o.ServiceOrderStatus == "IN_PROCESS"
}

// Note is a text note attached to a business partner.
type Note struct {
	BusinessPartner  string `json:"BusinessPartner"`
	NoteType         string `json:"NoteType"`
	NoteText         string `json:"NoteText"`
	CreatedByUser    string `json:"CreatedByUser,omitempty"`
	CreationDateTime Date   `json:"CreationDateTime,omitempty"`
}

// Decimal decodes OData Edm.Decimal values, which arrive as JSON strings,
// as well as plain JSON numbers.
type Decimal float64

// UnmarshalJSON implements json.Unmarshaler.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Decimal(f)
	return nil
}

// MarshalJSON encodes the value as an OData decimal string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(d), 'f', 2, 64))
}

// Date decodes the OData v2 "/Date(ms)/" format. The zero Date means absent.
type Date struct {
	time.Time
}

var datePattern = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// ParseDate parses "/Date(ms)/" and RFC 3339 strings.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := datePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable values decode to
// the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time, _ = ParseDate(s)
	return nil
}

// MarshalJSON encodes the date in OData v2 form.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal("/Date(" + strconv.FormatInt(d.UnixMilli(), 10) + ")/")
}
