// Package erp enriches records with SAP business partner and order context
// and writes partner notes.
package erp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/resilience"
	"github.com/sells-group/workflow-cli/pkg/sap"
)

// Order history depth per lookup.
const (
	LeadSalesOrders     = 10
	TicketSalesOrders   = 5
	TicketServiceOrders = 3
)

var (
	_ pipeline.Enricher = (*SAP)(nil)
	_ action.NoteWriter = (*SAP)(nil)
)

// SAP enriches from a live S/4HANA system.
type SAP struct {
	client sap.Client
	policy resilience.Policy
}

// NewSAP wraps an OData client.
func NewSAP(client sap.Client, policy resilience.Policy) *SAP {
	return &SAP{client: client, policy: policy}
}

// Enrich looks up the business partner for a lead's company, or the order
// context for a ticket's account. A nil result means nothing was found.
func (s *SAP) Enrich(ctx context.Context, rec model.Record) (*model.Enrichment, error) {
	switch {
	case rec.Lead != nil:
		return s.enrichLead(ctx, *rec.Lead)
	case rec.Ticket != nil:
		return s.enrichTicket(ctx, *rec.Ticket)
	default:
		return nil, nil
	}
}

func (s *SAP) enrichLead(ctx context.Context, lead model.Lead) (*model.Enrichment, error) {
	company := strings.TrimSpace(lead.Company)
	if company == "" {
		return nil, nil
	}
	bp, err := resilience.Call(ctx, s.policy, "find_partner", func(ctx context.Context) (*sap.BusinessPartner, error) {
		return s.client.FindBusinessPartner(ctx, company)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "erp: find partner %s", company)
	}
	if bp == nil || bp.BusinessPartner == "" {
		zap.L().Info("erp: no business partner", zap.String("company", company))
		return nil, nil
	}

	orders, err := resilience.Call(ctx, s.policy, "sales_orders", func(ctx context.Context) ([]sap.SalesOrder, error) {
		return s.client.SalesOrders(ctx, bp.BusinessPartner, LeadSalesOrders)
	})
	if err != nil {
		// The partner alone is still useful context.
		zap.L().Warn("erp: sales orders unavailable",
			zap.String("business_partner", bp.BusinessPartner),
			zap.Error(err),
		)
		orders = nil
	}
	return PartnerEnrichment(*bp, orders), nil
}

var orderRef = regexp.MustCompile(`(?i)\b(?:order|so|sap)\s*[#:]?\s*([a-z0-9][\w-]*\d)`)

func (s *SAP) enrichTicket(ctx context.Context, t model.Ticket) (*model.Enrichment, error) {
	var (
		sales   []sap.SalesOrder
		service []sap.ServiceOrder
		err     error
	)
	switch ref := orderReference(t.Description); {
	case t.AccountID != "":
		sales, err = resilience.Call(ctx, s.policy, "sales_orders", func(ctx context.Context) ([]sap.SalesOrder, error) {
			return s.client.SalesOrders(ctx, t.AccountID, TicketSalesOrders)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "erp: sales orders for account %s", t.AccountID)
		}
		service, err = resilience.Call(ctx, s.policy, "service_orders", func(ctx context.Context) ([]sap.ServiceOrder, error) {
			return s.client.ServiceOrders(ctx, t.AccountID, TicketServiceOrders)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "erp: service orders for account %s", t.AccountID)
		}
	case ref != "":
		service, err = resilience.Call(ctx, s.policy, "service_orders", func(ctx context.Context) ([]sap.ServiceOrder, error) {
			return s.client.ServiceOrders(ctx, ref, TicketServiceOrders)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "erp: service orders for reference %s", ref)
		}
	default:
		return nil, nil
	}
	return OrderContext(sales, service), nil
}

// orderReference extracts the first order reference such as "Order
// #SAP-2024-1234" from free text.
func orderReference(text string) string {
	m := orderRef.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// CreateNote attaches a note to a business partner.
func (s *SAP) CreateNote(ctx context.Context, businessPartnerID, subject, body string) (string, error) {
	note := sap.Note{
		BusinessPartner: businessPartnerID,
		NoteType:        "GENERAL",
		NoteText:        noteText(subject, body),
	}
	id, err := resilience.Call(ctx, s.policy, "create_note", func(ctx context.Context) (string, error) {
		return s.client.CreateNote(ctx, note)
	})
	if err != nil {
		return "", eris.Wrapf(err, "erp: create note on %s", businessPartnerID)
	}
	return id, nil
}

// PartnerEnrichment summarizes a partner and its most recent sales orders,
// newest first.
func PartnerEnrichment(bp sap.BusinessPartner, orders []sap.SalesOrder) *model.Enrichment {
	enr := &model.Enrichment{
		BusinessPartnerID: bp.BusinessPartner,
		Name:              bp.BusinessPartnerFullName,
		CreditRating:      bp.CreditRating,
		PaymentTerms:      bp.PaymentTerms,
		TotalOrders:       len(orders),
		IndustrySegment:   bp.Industry,
		AccountStatus:     bp.AccountStatus,
	}
	if !bp.CustomerSince.IsZero() {
		enr.CustomerSince = bp.CustomerSince.Format("2006-01-02")
	}
	for _, o := range orders {
		enr.TotalRevenue += float64(o.TotalNetAmount)
		if o.Open() {
			enr.OpenOrders++
		}
		enr.SalesOrders = append(enr.SalesOrders, salesOrder(o))
	}
	if len(orders) > 0 && !orders[0].CreationDate.IsZero() {
		d := orders[0].CreationDate.Time
		enr.LastOrderDate = &d
	}
	return enr
}

// OrderContext summarizes the orders found for a ticket. The partner id is
// taken from the first order. No orders at all means absent.
func OrderContext(sales []sap.SalesOrder, service []sap.ServiceOrder) *model.Enrichment {
	if len(sales) == 0 && len(service) == 0 {
		return nil
	}
	enr := &model.Enrichment{TotalOrders: len(sales) + len(service)}
	for _, o := range sales {
		if enr.BusinessPartnerID == "" {
			enr.BusinessPartnerID = o.SoldToParty
		}
		enr.TotalRevenue += float64(o.TotalNetAmount)
		if o.Open() {
			enr.OpenOrders++
		}
		enr.SalesOrders = append(enr.SalesOrders, salesOrder(o))
	}
	for _, o := range service {
		if enr.BusinessPartnerID == "" {
			enr.BusinessPartnerID = o.SoldToParty
		}
		if o.Open() {
			enr.OpenOrders++
		}
		enr.ServiceOrders = append(enr.ServiceOrders, serviceOrder(o))
	}
	if len(sales) > 0 && !sales[0].CreationDate.IsZero() {
		d := sales[0].CreationDate.Time
		enr.LastOrderDate = &d
	}
	return enr
}

func salesOrder(o sap.SalesOrder) model.Order {
	out := model.Order{
		ID:        o.SalesOrder,
		Type:      o.SalesOrderType,
		Status:    o.OverallSDProcessStatus,
		NetAmount: float64(o.TotalNetAmount),
		Currency:  o.TransactionCurrency,
	}
	if !o.CreationDate.IsZero() {
		d := o.CreationDate.Time
		out.CreatedAt = &d
	}
	return out
}

func serviceOrder(o sap.ServiceOrder) model.Order {
	out := model.Order{
		ID:          o.ServiceOrder,
		Type:        o.ServiceOrderType,
		Status:      o.ServiceOrderStatus,
		Description: o.ServiceOrderDescription,
	}
	if !o.ServiceOrderDate.IsZero() {
		d := o.ServiceOrderDate.Time
		out.CreatedAt = &d
	}
	return out
}

func noteText(subject, body string) string {
	subject, body = strings.TrimSpace(subject), strings.TrimSpace(body)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	default:
		return fmt.Sprintf("%s\n\n%s", subject, body)
	}
}
