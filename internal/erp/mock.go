package erp

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/fixture"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/pkg/sap"
)

var (
	_ pipeline.Enricher = (*Mock)(nil)
	_ action.NoteWriter = (*Mock)(nil)
)

// Note is a note recorded by Mock.
type Note struct {
	ID                string
	BusinessPartnerID string
	Text              string
}

// Mock enriches from fixture partners keyed by company name or account id.
type Mock struct {
	set *fixture.Set

	mu    sync.Mutex
	notes []Note
}

// NewMock creates a fixture-backed ERP.
func NewMock(set *fixture.Set) *Mock {
	return &Mock{set: set}
}

// Enrich returns the fixture partner for the lead's company or the ticket's
// account.
func (m *Mock) Enrich(_ context.Context, rec model.Record) (*model.Enrichment, error) {
	var key string
	switch {
	case rec.Lead != nil:
		key = rec.Lead.Company
	case rec.Ticket != nil:
		key = rec.Ticket.AccountID
	}
	enr, ok := m.set.Partner(key)
	if !ok {
		return nil, nil
	}
	return enr, nil
}

// CreateNote records the note and returns a simulated note id.
func (m *Mock) CreateNote(_ context.Context, businessPartnerID, subject, body string) (string, error) {
	if businessPartnerID == "" {
		return "", eris.New("erp: business partner is required for note")
	}
	text := noteText(subject, body)
	if r := []rune(text); len(r) > sap.MaxNoteLength {
		text = string(r[:sap.MaxNoteLength])
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("NOTE%05d", len(m.notes)+1)
	m.notes = append(m.notes, Note{ID: id, BusinessPartnerID: businessPartnerID, Text: text})
	zap.L().Info("erp: mock note created",
		zap.String("note_id", id),
		zap.String("business_partner", businessPartnerID),
	)
	return id, nil
}

// Notes returns the notes created so far.
func (m *Mock) Notes() []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Note(nil), m.notes...)
}
