package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/llm"
	"go.uber.org/zap"
)

const goodExtractionJSON = `{
  "strategic_decisions": ["cut channel A budget by half"],
  "data_insights": ["channel A conversion dropped 30% this month"],
  "action_items": [{"task": "prepare revised media plan", "owner": "CMO", "deadline": "2026-09-05"}],
  "meta": {"participants": ["CEO", "CMO"], "topic": "marketing review"}
}`

func newTestMeetingService(fs *mockFactStore, client domain.CompletionClient, b *bus.Bus) *MeetingService {
	facts := newTestFactService(fs)
	detector := NewConflictDetector(client, zap.NewNop())
	return NewMeetingService(facts, client, detector, b, zap.NewNop())
}

func meetingResponses() map[string]string {
	return map[string]string{
		extractionSystemPrompt: goodExtractionJSON,
		conflictSystemPrompt:   `{"conflict": false, "reason": ""}`,
	}
}

func TestProcessNotes(t *testing.T) {
	fs := newMockFactStore()
	b := bus.New(zap.NewNop())
	svc := newTestMeetingService(fs, scriptedLLM(meetingResponses()), b)

	result, err := svc.ProcessNotes(context.Background(), "CEO: we're cutting channel A budget in half...", map[string]any{"meeting": "marketing review"})
	if err != nil {
		t.Fatalf("ProcessNotes failed: %v", err)
	}

	if len(result.Extracted.StrategicDecisions) != 1 || len(result.Extracted.DataInsights) != 1 {
		t.Errorf("extraction = %+v", result.Extracted)
	}
	if len(result.Extracted.ActionItems) != 1 || result.Extracted.ActionItems[0].Owner != "CMO" {
		t.Errorf("action items = %+v", result.Extracted.ActionItems)
	}
	// Decisions and insights are stored; action items are not.
	if len(result.FactIDs) != 2 {
		t.Errorf("stored %d facts, want 2", len(result.FactIDs))
	}

	stored, _ := fs.List(context.Background(), domain.ListFilter{})
	if len(stored) != 2 {
		t.Errorf("store holds %d facts, want 2", len(stored))
	}
	for _, f := range stored {
		if f.Source != "meeting" {
			t.Errorf("fact source = %q", f.Source)
		}
	}

	events := b.History(domain.TopicFactIngested, 0)
	if len(events) != 1 {
		t.Fatalf("expected one fact_ingested event, got %d", len(events))
	}
	ids, _ := events[0].Payload["fact_ids"].([]any)
	if len(ids) != 2 {
		t.Errorf("event carries %d fact ids, want 2", len(ids))
	}
}

func TestProcessNotesExtractionFailure(t *testing.T) {
	m := llm.NewMockClient()
	m.CompleteErr = errors.New("provider down")
	b := bus.New(zap.NewNop())
	svc := newTestMeetingService(newMockFactStore(), m, b)

	_, err := svc.ProcessNotes(context.Background(), "some notes", nil)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}

	if _, err := svc.ProcessNotes(context.Background(), "   ", nil); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed for empty notes, got %v", err)
	}
}

func TestProcessNotesDetectsConflict(t *testing.T) {
	fs := newMockFactStore()
	b := bus.New(zap.NewNop())

	responses := meetingResponses()
	responses[conflictSystemPrompt] = `{"conflict": true, "reason": "reverses the channel A investment"}`
	svc := newTestMeetingService(fs, scriptedLLM(responses), b)
	ctx := context.Background()

	// Historical decision the new one contradicts.
	facts := newTestFactService(fs)
	old, _ := facts.Add(ctx, domain.FactTypeStrategicDecision, "重点投入渠道A", "meeting", nil)

	result, err := svc.ProcessNotes(ctx, "decided: 收缩渠道A预算", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.OldFactID != old.ID.String() {
		t.Errorf("old fact id = %s, want %s", c.OldFactID, old.ID)
	}
	if !strings.Contains(c.Reason, "reverses") {
		t.Errorf("reason = %q", c.Reason)
	}

	if events := b.History(domain.TopicConflictDetected, 0); len(events) != 1 {
		t.Errorf("expected one conflict_detected event, got %d", len(events))
	}
}

func TestProcessNotesSkipsSameBatch(t *testing.T) {
	fs := newMockFactStore()
	b := bus.New(zap.NewNop())

	// Every pairwise check reports conflict; only history may be flagged,
	// so an empty store must yield none even with two same-batch decisions.
	responses := map[string]string{
		extractionSystemPrompt: `{"strategic_decisions": ["invest in channel A", "cut channel A budget"], "data_insights": [], "action_items": []}`,
		conflictSystemPrompt:   `{"conflict": true, "reason": "opposite"}`,
	}
	svc := newTestMeetingService(fs, scriptedLLM(responses), b)

	result, err := svc.ProcessNotes(context.Background(), "contradictory meeting", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("same-batch facts flagged against each other: %+v", result.Conflicts)
	}
}
