package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead represents a Salesforce Lead record.
type Lead struct {
	ID                string  `json:"Id" salesforce:"Id"`
	Name              string  `json:"Name" salesforce:"Name"`
	FirstName         string  `json:"FirstName" salesforce:"FirstName"`
	LastName          string  `json:"LastName" salesforce:"LastName"`
	Company           string  `json:"Company" salesforce:"Company"`
	Email             string  `json:"Email" salesforce:"Email"`
	Phone             string  `json:"Phone" salesforce:"Phone"`
	Title             string  `json:"Title" salesforce:"Title"`
	Industry          string  `json:"Industry" salesforce:"Industry"`
	LeadSource        string  `json:"LeadSource" salesforce:"LeadSource"`
	Status            string  `json:"Status" salesforce:"Status"`
	Rating            string  `json:"Rating" salesforce:"Rating"`
	AnnualRevenue     float64 `json:"AnnualRevenue" salesforce:"AnnualRevenue"`
	NumberOfEmployees int     `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	Website           string  `json:"Website" salesforce:"Website"`
	Description       string  `json:"Description" salesforce:"Description"`
	OwnerID           string  `json:"OwnerId" salesforce:"OwnerId"`
	CreatedDate       string  `json:"CreatedDate" salesforce:"CreatedDate"`
}

// Case represents a Salesforce Case record.
type Case struct {
	ID          string `json:"Id" salesforce:"Id"`
	CaseNumber  string `json:"CaseNumber" salesforce:"CaseNumber"`
	Subject     string `json:"Subject" salesforce:"Subject"`
	Description string `json:"Description" salesforce:"Description"`
	Status      string `json:"Status" salesforce:"Status"`
	Priority    string `json:"Priority" salesforce:"Priority"`
	Origin      string `json:"Origin" salesforce:"Origin"`
	Type        string `json:"Type" salesforce:"Type"`
	Reason      string `json:"Reason" salesforce:"Reason"`
	ContactID   string `json:"ContactId" salesforce:"ContactId"`
	AccountID   string `json:"AccountId" salesforce:"AccountId"`
	OwnerID     string `json:"OwnerId" salesforce:"OwnerId"`
	CreatedDate string `json:"CreatedDate" salesforce:"CreatedDate"`
	ClosedDate  string `json:"ClosedDate" salesforce:"ClosedDate"`
	IsClosed    bool   `json:"IsClosed" salesforce:"IsClosed"`
	IsEscalated bool   `json:"IsEscalated" salesforce:"IsEscalated"`
}

var leadFields = []string{
	"Id", "Name", "FirstName", "LastName", "Company", "Email", "Phone",
	"Title", "Industry", "LeadSource", "Status", "Rating", "AnnualRevenue",
	"NumberOfEmployees", "Website", "Description", "OwnerId", "CreatedDate",
}

var caseFields = []string{
	"Id", "CaseNumber", "Subject", "Description", "Status", "Priority",
	"Origin", "Type", "Reason", "ContactId", "AccountId", "OwnerId",
	"CreatedDate", "ClosedDate", "IsClosed", "IsEscalated",
}

// FindLeadByID returns the Lead with the given ID, or nil if none exists.
func FindLeadByID(ctx context.Context, c Client, id string) (*Lead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Id = '%s' LIMIT 1",
		strings.Join(leadFields, ", "),
		escapeSoql(id),
	)

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find lead by id %s", id))
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// FindNewestLead returns the most recently created Lead in status New, or
// nil when the queue is empty.
func FindNewestLead(ctx context.Context, c Client) (*Lead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Status = 'New' ORDER BY CreatedDate DESC LIMIT 1",
		strings.Join(leadFields, ", "),
	)

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, "sf: find newest lead")
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// FindCaseByID returns the Case with the given ID, or nil if none exists.
func FindCaseByID(ctx context.Context, c Client, id string) (*Case, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Case WHERE Id = '%s' LIMIT 1",
		strings.Join(caseFields, ", "),
		escapeSoql(id),
	)

	var cases []Case
	if err := c.Query(ctx, soql, &cases); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find case by id %s", id))
	}
	if len(cases) == 0 {
		return nil, nil
	}
	return &cases[0], nil
}

// FindNewestCase returns the most recently created Case in status New.
func FindNewestCase(ctx context.Context, c Client) (*Case, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Case WHERE Status = 'New' ORDER BY CreatedDate DESC LIMIT 1",
		strings.Join(caseFields, ", "),
	)

	var cases []Case
	if err := c.Query(ctx, soql, &cases); err != nil {
		return nil, eris.Wrap(err, "sf: find newest case")
	}
	if len(cases) == 0 {
		return nil, nil
	}
	return &cases[0], nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
