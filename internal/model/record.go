package model

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"
)

// Lead is the normalized CRM lead. Field names follow the Salesforce Lead
// object so records round-trip through fixtures and APIs unchanged.
type Lead struct {
	ID                string  `json:"Id" yaml:"Id"`
	Name              string  `json:"Name,omitempty" yaml:"Name,omitempty"`
	FirstName         string  `json:"FirstName,omitempty" yaml:"FirstName,omitempty"`
	LastName          string  `json:"LastName,omitempty" yaml:"LastName,omitempty"`
	Company           string  `json:"Company,omitempty" yaml:"Company,omitempty"`
	Email             string  `json:"Email,omitempty" yaml:"Email,omitempty"`
	Phone             string  `json:"Phone,omitempty" yaml:"Phone,omitempty"`
	Title             string  `json:"Title,omitempty" yaml:"Title,omitempty"`
	Industry          string  `json:"Industry,omitempty" yaml:"Industry,omitempty"`
	LeadSource        string  `json:"LeadSource,omitempty" yaml:"LeadSource,omitempty"`
	Status            string  `json:"Status,omitempty" yaml:"Status,omitempty"`
	Rating            string  `json:"Rating,omitempty" yaml:"Rating,omitempty"`
	AnnualRevenue     float64 `json:"AnnualRevenue,omitempty" yaml:"AnnualRevenue,omitempty"`
	NumberOfEmployees int     `json:"NumberOfEmployees,omitempty" yaml:"NumberOfEmployees,omitempty"`
	Website           string  `json:"Website,omitempty" yaml:"Website,omitempty"`
	Description       string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	OwnerID           string  `json:"OwnerId,omitempty" yaml:"OwnerId,omitempty"`
	CreatedDate       string  `json:"CreatedDate,omitempty" yaml:"CreatedDate,omitempty"`
}

// DisplayName prefers the full name and falls back to first/last.
func (l Lead) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Ticket is the normalized CRM support case.
type Ticket struct {
	ID          string `json:"Id" yaml:"Id"`
	CaseNumber  string `json:"CaseNumber,omitempty" yaml:"CaseNumber,omitempty"`
	Subject     string `json:"Subject,omitempty" yaml:"Subject,omitempty"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Status      string `json:"Status,omitempty" yaml:"Status,omitempty"`
	Priority    string `json:"Priority,omitempty" yaml:"Priority,omitempty"`
	Origin      string `json:"Origin,omitempty" yaml:"Origin,omitempty"`
	Type        string `json:"Type,omitempty" yaml:"Type,omitempty"`
	AccountID   string `json:"AccountId,omitempty" yaml:"AccountId,omitempty"`
	ContactID   string `json:"ContactId,omitempty" yaml:"ContactId,omitempty"`
	OwnerID     string `json:"OwnerId,omitempty" yaml:"OwnerId,omitempty"`
	CreatedDate string `json:"CreatedDate,omitempty" yaml:"CreatedDate,omitempty"`
	IsEscalated bool   `json:"IsEscalated,omitempty" yaml:"IsEscalated,omitempty"`
}

// HasContent reports whether there is any text to classify.
func (t Ticket) HasContent() bool {
	return strings.TrimSpace(t.Subject) != "" || strings.TrimSpace(t.Description) != ""
}

// Record is the primary record of a run: exactly one of Lead or Ticket is
// set, plus any source fields that have no typed home.
type Record struct {
	Kind   WorkflowKind   `json:"kind"`
	Lead   *Lead          `json:"lead,omitempty"`
	Ticket *Ticket        `json:"ticket,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Clone returns a copy that shares no pointers or maps with r.
func (r Record) Clone() Record {
	out := Record{Kind: r.Kind, Extra: maps.Clone(r.Extra)}
	if r.Lead != nil {
		l := *r.Lead
		out.Lead = &l
	}
	if r.Ticket != nil {
		t := *r.Ticket
		out.Ticket = &t
	}
	return out
}

// ID returns the source-system identifier of the record.
func (r Record) ID() string {
	switch {
	case r.Lead != nil:
		return r.Lead.ID
	case r.Ticket != nil:
		return r.Ticket.ID
	default:
		return ""
	}
}

// Usable reports whether the record carries enough content to run the
// workflow without fetching it first.
func (r Record) Usable() bool {
	switch r.Kind {
	case KindLead:
		return r.Lead != nil && (r.Lead.Title != "" || r.Lead.Company != "" || r.Lead.DisplayName() != "")
	case KindTicket:
		return r.Ticket != nil && r.Ticket.HasContent()
	default:
		return false
	}
}

var leadFields = map[string]struct{}{
	"Id": {}, "Name": {}, "FirstName": {}, "LastName": {}, "Company": {}, "Email": {},
	"Phone": {}, "Title": {}, "Industry": {}, "LeadSource": {}, "Status": {}, "Rating": {},
	"AnnualRevenue": {}, "NumberOfEmployees": {}, "Website": {}, "Description": {},
	"OwnerId": {}, "CreatedDate": {}, "attributes": {},
}

var ticketFields = map[string]struct{}{
	"Id": {}, "CaseNumber": {}, "Subject": {}, "Description": {}, "Status": {}, "Priority": {},
	"Origin": {}, "Type": {}, "AccountId": {}, "ContactId": {}, "OwnerId": {},
	"CreatedDate": {}, "IsEscalated": {}, "attributes": {},
}

// RecordFromFields normalizes a loosely typed field map (CRM JSON, CSV row,
// fixture) into a Record. Unknown keys land in Extra; missing or malformed
// values become zero values.
func RecordFromFields(kind WorkflowKind, fields map[string]any) Record {
	rec := Record{Kind: kind}
	switch kind {
	case KindLead:
		l := LeadFromFields(fields)
		rec.Lead = &l
		rec.Extra = extraFields(fields, leadFields)
	case KindTicket:
		t := TicketFromFields(fields)
		rec.Ticket = &t
		rec.Extra = extraFields(fields, ticketFields)
	}
	return rec
}

// LeadFromFields maps Salesforce Lead field names onto a Lead.
func LeadFromFields(f map[string]any) Lead {
	return Lead{
		ID:                fieldString(f, "Id"),
		Name:              fieldString(f, "Name"),
		FirstName:         fieldString(f, "FirstName"),
		LastName:          fieldString(f, "LastName"),
		Company:           fieldString(f, "Company"),
		Email:             fieldString(f, "Email"),
		Phone:             fieldString(f, "Phone"),
		Title:             fieldString(f, "Title"),
		Industry:          fieldString(f, "Industry"),
		LeadSource:        fieldString(f, "LeadSource"),
		Status:            fieldString(f, "Status"),
		Rating:            fieldString(f, "Rating"),
		AnnualRevenue:     fieldFloat(f, "AnnualRevenue"),
		NumberOfEmployees: fieldInt(f, "NumberOfEmployees"),
		Website:           fieldString(f, "Website"),
		Description:       fieldString(f, "Description"),
		OwnerID:           fieldString(f, "OwnerId"),
		CreatedDate:       fieldString(f, "CreatedDate"),
	}
}

// TicketFromFields maps Salesforce Case field names onto a Ticket.
func TicketFromFields(f map[string]any) Ticket {
	return Ticket{
		ID:          fieldString(f, "Id"),
		CaseNumber:  fieldString(f, "CaseNumber"),
		Subject:     fieldString(f, "Subject"),
		Description: fieldString(f, "Description"),
		Status:      fieldString(f, "Status"),
		Priority:    fieldString(f, "Priority"),
		Origin:      fieldString(f, "Origin"),
		Type:        fieldString(f, "Type"),
		AccountID:   fieldString(f, "AccountId"),
		ContactID:   fieldString(f, "ContactId"),
		OwnerID:     fieldString(f, "OwnerId"),
		CreatedDate: fieldString(f, "CreatedDate"),
		IsEscalated: fieldBool(f, "IsEscalated"),
	}
}

func extraFields(f map[string]any, known map[string]struct{}) map[string]any {
	var extra map[string]any
	for k, v := range f {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func fieldString(f map[string]any, key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return ""
	}
}

func fieldFloat(f map[string]any, key string) float64 {
	var out float64
	switch v := f[key].(type) {
	case float64:
		out = v
	case float32:
		out = float64(v)
	case int:
		out = float64(v)
	case int64:
		out = float64(v)
	case json.Number:
		out, _ = v.Float64()
	case string:
		s := strings.NewReplacer(",", "", "$", "", " ", "").Replace(v)
		out, _ = strconv.ParseFloat(s, 64)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

// fieldInt saturates at the int range instead of wrapping.
func fieldInt(f map[string]any, key string) int {
	v := fieldFloat(f, key)
	switch {
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= 0:
		return 0
	default:
		return int(v)
	}
}

func fieldBool(f map[string]any, key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}
