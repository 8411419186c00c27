package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/workflow-cli/internal/model"
)

var taskDueDays = map[model.Priority]int{
	model.PriorityP1: 1,
	model.PriorityP2: 3,
	model.PriorityP3: 14,
}

// FollowUpTask builds the CRM task for a routed lead.
func FollowUpTask(lead model.Lead, score model.ScoreBreakdown, d model.Decision, enr *model.Enrichment, now time.Time) Task {
	priority := "Normal"
	if d.Priority == model.PriorityP1 {
		priority = "High"
	}
	days, ok := taskDueDays[d.Priority]
	if !ok {
		days = 7
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Lead score: %.2f (%s, %s)\n", score.Score, d.OwnerType, d.Priority)
	fmt.Fprintf(&sb, "Company: %s\n", orDash(lead.Company))
	fmt.Fprintf(&sb, "Title: %s\n", orDash(lead.Title))
	fmt.Fprintf(&sb, "Industry: %s\n", orDash(lead.Industry))
	fmt.Fprintf(&sb, "Lead source: %s\n", orDash(lead.LeadSource))
	writeEnrichment(&sb, enr)
	sb.WriteString("\nReasoning:\n")
	sb.WriteString(score.Reasoning)
	if score.LLM != nil && score.LLM.RecommendedAction != "" {
		sb.WriteString("\n\nRecommended action: " + score.LLM.RecommendedAction)
	}

	return Task{
		RecordID:    lead.ID,
		OwnerID:     d.OwnerID,
		Subject:     fmt.Sprintf("Follow up with %s (%s)", orDash(lead.DisplayName()), d.Priority),
		Description: sb.String(),
		Priority:    priority,
		DueDate:     now.AddDate(0, 0, days),
	}
}

// PartnerNote builds the ERP note recorded on a lead's business partner.
func PartnerNote(lead model.Lead, score model.ScoreBreakdown, d model.Decision) (string, string) {
	subject := fmt.Sprintf("CRM lead %s qualified as %s", lead.ID, d.Priority)
	body := fmt.Sprintf("Lead %s (%s, %s) scored %.2f and was routed to %s. Status: %s.",
		orDash(lead.DisplayName()), orDash(lead.Title), orDash(lead.Company), score.Score, d.OwnerType, d.LeadStatus)
	return subject, body
}

// LeadEmail builds the sales agent notification.
func LeadEmail(lead model.Lead, score model.ScoreBreakdown, d model.Decision, enr *model.Enrichment) (string, string) {
	subject := fmt.Sprintf("[%s] Qualified lead: %s at %s (score %.2f)",
		d.Priority, orDash(lead.DisplayName()), orDash(lead.Company), score.Score)

	var sb strings.Builder
	fmt.Fprintf(&sb, "A lead has been routed to %s with priority %s.\n\n", d.OwnerType, d.Priority)
	fmt.Fprintf(&sb, "Name: %s\nTitle: %s\nCompany: %s\nEmail: %s\nPhone: %s\n",
		orDash(lead.DisplayName()), orDash(lead.Title), orDash(lead.Company), orDash(lead.Email), orDash(lead.Phone))
	fmt.Fprintf(&sb, "Lead id: %s\n", lead.ID)
	writeEnrichment(&sb, enr)
	sb.WriteString("\nScore breakdown:\n")
	for _, f := range score.Factors {
		fmt.Fprintf(&sb, "- %s: %d/%d", f.Name, f.Points, f.Max)
		if f.Value != "" {
			fmt.Fprintf(&sb, " (%s)", f.Value)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + d.Reason + "\n")
	if score.LLM != nil && score.LLM.Reasoning != "" {
		sb.WriteString("\nAI analysis: " + score.LLM.Reasoning + "\n")
	}
	return subject, sb.String()
}

// TicketEmail builds the routed ticket notification.
func TicketEmail(t model.Ticket, c model.Classification, d model.Decision, enr *model.Enrichment) (string, string) {
	label := "Product complaint"
	switch c.Category {
	case model.CategoryITSupport:
		label = "IT support"
	case model.CategoryGeneral:
		label = "General enquiry"
	}
	subject := fmt.Sprintf("[%s][%s] Case %s: %s", label, d.ProductCategory, orDash(t.CaseNumber), orDash(t.Subject))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Case %s (%s) has been classified as %s.\n\n", orDash(t.CaseNumber), t.ID, label)
	fmt.Fprintf(&sb, "Product category: %s\n", d.ProductCategory)
	if c.ProductName != "" {
		fmt.Fprintf(&sb, "Product: %s\n", c.ProductName)
	}
	fmt.Fprintf(&sb, "Urgency: %s\nSentiment: %s\nConfidence: %.2f\n", orDash(c.Urgency), orDash(c.Sentiment), c.Confidence)
	if d.PortalURL != "" {
		fmt.Fprintf(&sb, "Support portal: %s\n", d.PortalURL)
	}
	writeEnrichment(&sb, enr)
	fmt.Fprintf(&sb, "\nSubject: %s\n\n%s\n", orDash(t.Subject), orDash(t.Description))
	if c.SuggestedResponse != "" {
		sb.WriteString("\nSuggested response:\n" + c.SuggestedResponse + "\n")
	}
	sb.WriteString("\n" + d.Reason + "\n")
	return subject, sb.String()
}

// CaseComment builds the audit comment posted on the case.
func CaseComment(c model.Classification, d model.Decision, email model.Outcome) string {
	status := "not attempted"
	switch email {
	case model.OutcomeSuccess:
		status = "sent to " + d.Recipient
	case model.OutcomeFailure:
		status = "failed"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Automated triage: %s / %s (confidence %.2f, source %s)\n", c.Category, d.ProductCategory, c.Confidence, c.Source)
	fmt.Fprintf(&sb, "Sentiment: %s, urgency: %s\n", orDash(c.Sentiment), orDash(c.Urgency))
	fmt.Fprintf(&sb, "Notification: %s\n", status)
	if d.Escalate {
		fmt.Fprintf(&sb, "Escalation: priority %s\n", d.NewPriority)
	}
	if c.Reasoning != "" {
		sb.WriteString("\nReasoning: " + c.Reasoning + "\n")
	}
	if c.SuggestedResponse != "" {
		sb.WriteString("\nSuggested response: " + c.SuggestedResponse + "\n")
	}
	return sb.String()
}

func writeEnrichment(sb *strings.Builder, enr *model.Enrichment) {
	if enr == nil {
		sb.WriteString("ERP: no business partner found\n")
		return
	}
	fmt.Fprintf(sb, "ERP partner: %s (%s)\n", orDash(enr.Name), orDash(enr.BusinessPartnerID))
	fmt.Fprintf(sb, "Orders: %d, open: %d, lifetime revenue: %.0f\n", enr.TotalOrders, enr.OpenOrders, enr.TotalRevenue)
	if enr.CreditRating != "" {
		fmt.Fprintf(sb, "Credit rating: %s\n", enr.CreditRating)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
