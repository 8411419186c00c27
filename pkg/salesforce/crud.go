package salesforce

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// MaxTextLength caps free-text fields written back to Salesforce.
const MaxTextLength = 5000

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	unsafeReplacer = strings.NewReplacer("'", "", `"`, "", ";", "", "--", "")
)

// Sanitize strips markup and statement delimiters from free text and caps
// its length.
func Sanitize(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = unsafeReplacer.Replace(s)
	if r := []rune(s); len(r) > MaxTextLength {
		s = string(r[:MaxTextLength])
	}
	return strings.TrimSpace(s)
}

// UpdateLead updates a Lead record with the given fields.
func UpdateLead(ctx context.Context, c Client, leadID string, fields map[string]any) error {
	return update(ctx, c, "Lead", leadID, fields)
}

// UpdateCase updates a Case record with the given fields.
func UpdateCase(ctx context.Context, c Client, caseID string, fields map[string]any) error {
	return update(ctx, c, "Case", caseID, fields)
}

func update(ctx context.Context, c Client, object, id string, fields map[string]any) error {
	if id == "" {
		return eris.New(fmt.Sprintf("sf: %s id is required", strings.ToLower(object)))
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	if err := c.UpdateOne(ctx, object, id, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update %s %s", strings.ToLower(object), id))
	}
	return nil
}

// Task is a follow-up activity attached to a lead, contact or case.
type Task struct {
	RelatedID   string
	OwnerID     string
	Subject     string
	Description string
	Priority    string
	DueDate     string // YYYY-MM-DD
}

// CreateTask creates a Task and returns its ID. Lead and contact IDs link
// through WhoId; every other record links through WhatId.
func CreateTask(ctx context.Context, c Client, t Task) (string, error) {
	if t.RelatedID == "" {
		return "", eris.New("sf: task related id is required")
	}
	fields := map[string]any{
		"Subject":     Sanitize(t.Subject),
		"Description": Sanitize(t.Description),
		"Status":      "Not Started",
		"Priority":    "Normal",
	}
	if t.Priority != "" {
		fields["Priority"] = t.Priority
	}
	if isWhoID(t.RelatedID) {
		fields["WhoId"] = t.RelatedID
	} else {
		fields["WhatId"] = t.RelatedID
	}
	if t.OwnerID != "" {
		fields["OwnerId"] = t.OwnerID
	}
	if t.DueDate != "" {
		fields["ActivityDate"] = t.DueDate
	}
	id, err := c.InsertOne(ctx, "Task", fields)
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create task for %s", t.RelatedID))
	}
	return id, nil
}

// CreateCaseComment posts a published comment on a Case and returns its ID.
func CreateCaseComment(ctx context.Context, c Client, caseID, body string) (string, error) {
	if caseID == "" {
		return "", eris.New("sf: case id is required for comment")
	}
	id, err := c.InsertOne(ctx, "CaseComment", map[string]any{
		"ParentId":    caseID,
		"CommentBody": Sanitize(body),
		"IsPublished": true,
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create comment on case %s", caseID))
	}
	return id, nil
}

// Lead IDs start with 00Q, contact IDs with 003.
func isWhoID(id string) bool {
	return strings.HasPrefix(id, "00Q") || strings.HasPrefix(id, "003")
}
