package model

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestWorkflowState_SetOnce(t *testing.T) {
	t.Parallel()

	s := NewState("run-1", KindLead, "00Q1", false, started)
	require.NoError(t, s.SetRecord(Record{Kind: KindLead, Lead: &Lead{ID: "00Q1"}}))
	require.NoError(t, s.SetEnrichment(nil))
	require.NoError(t, s.SetScore(ScoreBreakdown{Score: 0.5}))
	require.NoError(t, s.SetDecision(Decision{Action: ActionAssignOwner}))
	require.NoError(t, s.SetClassification(Classification{Category: CategoryGeneral}))

	assert.ErrorIs(t, s.SetRecord(Record{Kind: KindLead, Lead: &Lead{ID: "00Q2"}}), ErrFieldAlreadySet)
	assert.ErrorIs(t, s.SetEnrichment(&Enrichment{BusinessPartnerID: "BP"}), ErrFieldAlreadySet)
	assert.ErrorIs(t, s.SetScore(ScoreBreakdown{Score: 0.9}), ErrFieldAlreadySet)
	assert.ErrorIs(t, s.SetDecision(Decision{Action: ActionNurture}), ErrFieldAlreadySet)
	assert.ErrorIs(t, s.SetClassification(Classification{}), ErrFieldAlreadySet)

	assert.Equal(t, "00Q1", s.Record().ID())
	assert.Nil(t, s.Enrichment())
	assert.Equal(t, 0.5, s.Score().Score)
	assert.Equal(t, ActionAssignOwner, s.Decision().Action)
}

func TestWorkflowState_GettersReturnCopies(t *testing.T) {
	t.Parallel()

	s := NewState("run-1", KindLead, "", false, started)
	require.NoError(t, s.SetScore(ScoreBreakdown{Score: 0.5}))
	got := s.Score()
	got.Score = 1
	assert.Equal(t, 0.5, s.Score().Score)
}

func TestWorkflowState_GettersDoNotAlias(t *testing.T) {
	t.Parallel()

	ordered := started.Add(-24 * time.Hour)
	rec := Record{Kind: KindLead, Lead: &Lead{ID: "00Q1", Title: "CTO"}, Extra: map[string]any{"Region": "EMEA"}}
	enr := &Enrichment{BusinessPartnerID: "BP1", LastOrderDate: &ordered, SalesOrders: []Order{{ID: "SO1", Status: "Open"}}}
	score := ScoreBreakdown{
		Score:   0.8,
		Factors: []Factor{{Name: "title_seniority", Points: 30}},
		LLM:     &LLMAnalysis{Reasoning: "strong fit", KeyFactors: []string{"budget"}},
	}
	class := Classification{Category: CategoryProductComplaint, Factors: []Factor{{Name: "product_keywords", Points: 2}}}

	s := NewState("run-1", KindLead, "00Q1", true, started)
	require.NoError(t, s.SetRecord(rec))
	require.NoError(t, s.SetEnrichment(enr))
	require.NoError(t, s.SetScore(score))
	require.NoError(t, s.SetClassification(class))

	// Writes through the caller's values after setting.
	rec.Lead.Title = "Intern"
	rec.Extra["Region"] = "APAC"
	enr.SalesOrders[0].Status = "Completed"
	score.Factors[0].Points = 0

	// Writes through getter results.
	s.Record().Lead.Title = "Intern"
	s.Record().Extra["Region"] = "APAC"
	*s.Enrichment().LastOrderDate = time.Time{}
	s.Enrichment().SalesOrders[0].ID = "SO9"
	s.Score().Factors[0].Points = 0
	s.Score().LLM.KeyFactors[0] = "none"
	s.Classification().Factors[0].Points = 0

	assert.Equal(t, "CTO", s.Record().Lead.Title)
	assert.Equal(t, "EMEA", s.Record().Extra["Region"])
	assert.Equal(t, ordered, *s.Enrichment().LastOrderDate)
	assert.Equal(t, Order{ID: "SO1", Status: "Open"}, s.Enrichment().SalesOrders[0])
	assert.Equal(t, 30, s.Score().Factors[0].Points)
	assert.Equal(t, "budget", s.Score().LLM.KeyFactors[0])
	assert.Equal(t, 2, s.Classification().Factors[0].Points)

	r := s.Snapshot(started.Add(time.Second))
	r.Record.Lead.Title = "Intern"
	r.Score.Factors[0].Points = 0
	assert.Equal(t, "CTO", s.Record().Lead.Title)
	assert.Equal(t, 30, s.Score().Factors[0].Points)
}

func TestWorkflowState_StatusForwardOnly(t *testing.T) {
	t.Parallel()

	s := NewState("run-1", KindTicket, "", false, started)
	assert.Equal(t, StatusInProgress, s.Status())
	assert.ErrorIs(t, s.SetStatus(StatusInProgress), ErrStatusRegression)

	require.NoError(t, s.SetStatus(StatusCompleted))
	assert.ErrorIs(t, s.SetStatus(StatusFailed), ErrStatusRegression)
	assert.ErrorIs(t, s.Fail(ErrInternal, "report", "late"), ErrStatusRegression)
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Nil(t, s.Failure())
}

func TestWorkflowState_Fail(t *testing.T) {
	t.Parallel()

	s := NewState("run-1", KindLead, "", false, started)
	require.NoError(t, s.Fail(ErrFetchFailure, "fetch", "no record"))

	assert.Equal(t, StatusFailed, s.Status())
	f := s.Failure()
	require.NotNil(t, f)
	assert.Equal(t, ErrFetchFailure, f.Kind)
	assert.Equal(t, "fetch", f.Stage)
}

func TestWorkflowState_ClassificationPhase(t *testing.T) {
	t.Parallel()

	s := NewState("run-1", KindTicket, "", false, started)
	assert.Equal(t, PhaseUnclassified, s.ClassificationPhase())
	require.NoError(t, s.SetClassification(Classification{Category: CategoryITSupport}))
	assert.Equal(t, PhaseClassified, s.ClassificationPhase())
	require.NoError(t, s.SetStatus(StatusCompleted))
	assert.Equal(t, PhaseTerminal, s.ClassificationPhase())
}

func TestActionLog_AppendOnly(t *testing.T) {
	t.Parallel()

	var log ActionLog
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := OutcomeSuccess
			if i%4 == 0 {
				outcome = OutcomeFailure
			}
			log.Append(ActionResult{Name: "sf:update_status", Outcome: outcome})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, log.Len())
	assert.Equal(t, 5, log.Failures())

	entries := log.Entries()
	entries[0].Name = "changed"
	assert.NotEqual(t, "changed", log.Entries()[0].Name)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	s := NewState("run-9", KindLead, "00Q9", true, started)
	require.NoError(t, s.SetRecord(Record{Kind: KindLead, Lead: &Lead{ID: "00Q9"}}))
	require.NoError(t, s.SetEnrichment(nil))
	s.AddNote(ErrEnrichmentAbsent, "enrich", "no business partner")
	require.NoError(t, s.SetScore(ScoreBreakdown{Score: 0.8, Reasoning: "strong", LLMUsed: true}))
	require.NoError(t, s.SetDecision(Decision{Action: ActionAssignOwner, Reason: "AE"}))
	s.Log().Append(ActionResult{Name: "sf:assign_owner", Outcome: OutcomeSuccess})
	s.Log().Append(ActionResult{Name: "sf:update_status", Outcome: OutcomeFailure, Detail: "timeout"})
	require.NoError(t, s.SetStatus(StatusCompleted))

	r := s.Snapshot(started.Add(1500 * time.Millisecond))

	assert.Equal(t, "run-9", r.RunID)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, "00Q9", r.RecordID)
	assert.True(t, r.LLMUsed)
	assert.Equal(t, int64(1500), r.DurationMs)
	assert.Equal(t, "strong\nAE", r.Reasoning)
	assert.Len(t, r.Actions, 2)
	assert.Equal(t, 1, r.FailedActions())
	require.Len(t, r.Notes, 1)
	assert.Equal(t, ErrEnrichmentAbsent, r.Notes[0].Kind)
	assert.Empty(t, r.ErrorKind)
}

func TestSnapshot_Failed(t *testing.T) {
	t.Parallel()

	s := NewState("run-2", KindTicket, "500X", false, started)
	require.NoError(t, s.Fail(ErrClassificationFailure, "classify", "empty ticket"))

	r := s.Snapshot(started)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, ErrClassificationFailure, r.ErrorKind)
	assert.Equal(t, "empty ticket", r.FailureReason)
	assert.NotNil(t, r.Actions)
	assert.Empty(t, r.Actions)
}
