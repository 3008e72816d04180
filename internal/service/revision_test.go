package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/llm"
	"go.uber.org/zap"
)

const (
	gateYesJSON        = `{"should_revise": true, "reason": "new fact contradicts the channel A action"}`
	gateNoJSON         = `{"should_revise": false, "reason": "informational only"}`
	goodComparisonJSON = `{"revision_summary": "Channel A action reversed after the budget cut decision.", "revision_reasons": [{"action_index": 0, "old_title": "Rebalance channel budget", "new_title": "Cut channel A spend", "why_changed": "new decision reverses the earlier bet"}]}`
)

type revisionHarness struct {
	fs      *mockFactStore
	facts   *FactService
	reports *ReportService
	session *PipelineSession
	ctrl    *RevisionController
	bus     *bus.Bus
	mock    *llm.MockClient
}

func newRevisionHarness(t *testing.T, responses map[string]string) *revisionHarness {
	t.Helper()

	fs := newMockFactStore()
	b := bus.New(zap.NewNop())
	mock := scriptedLLM(responses)
	session := NewPipelineSession()
	facts := newTestFactService(fs)
	reports := NewReportService(session, facts, mock, b, zap.NewNop())
	ctrl := NewRevisionController(session, reports, facts, mock, b, zap.NewNop())
	ctrl.Start()
	t.Cleanup(ctrl.Stop)

	return &revisionHarness{fs: fs, facts: facts, reports: reports, session: session, ctrl: ctrl, bus: b, mock: mock}
}

func revisionResponses() map[string]string {
	responses := pipelineResponses()
	responses[revisionGateSystemPrompt] = gateYesJSON
	responses[revisionComparisonSystemPrompt] = goodComparisonJSON
	return responses
}

// ingestFact stores a fact and emits fact_ingested for it, the way the
// meeting agent does.
func (h *revisionHarness) ingestFact(ctx context.Context, content string) {
	f, err := h.facts.Add(ctx, domain.FactTypeStrategicDecision, content, "meeting", nil)
	if err != nil {
		panic(err)
	}
	h.bus.Emit(ctx, domain.TopicFactIngested, map[string]any{
		"fact_ids": []any{f.ID.String()},
	}, "test")
}

func TestRevisionIgnoredWithoutReport(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	h.ingestFact(ctx, "cut channel A budget by half")

	if h.session.Report() != nil {
		t.Error("no report should exist")
	}
	if events := h.bus.History(domain.TopicReportUpdated, 0); len(events) != 0 {
		t.Errorf("expected no report_updated events, got %d", len(events))
	}
}

func TestRevisionIgnoredWhenConfirmed(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}
	tasks, _, err := h.reports.Confirm(ctx, []domain.ApprovedAction{{Title: "Rebalance channel budget", Owner: "CMO", Deadline: "2026-09-15"}}, false)
	if err != nil {
		t.Fatal(err)
	}

	h.ingestFact(ctx, "cut channel A budget by half")

	report := h.session.Report()
	if report.Version != "v1.0" || report.Status != domain.ReportStatusConfirmed {
		t.Errorf("confirmed report mutated: version=%s status=%s", report.Version, report.Status)
	}
	if len(report.Tasks) != len(tasks) {
		t.Error("confirmed tasks changed")
	}
	if events := h.bus.History(domain.TopicReportUpdated, 0); len(events) != 0 {
		t.Errorf("expected no report_updated events, got %d", len(events))
	}
}

func TestRevisionHappyPath(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}

	h.ingestFact(ctx, "cut channel A budget by half")

	report := h.session.Report()
	if report.Version != "v2.0" {
		t.Fatalf("version = %q, want v2.0", report.Version)
	}
	if report.Status != domain.ReportStatusPendingConfirmation {
		t.Errorf("revised report status = %q", report.Status)
	}

	events := h.bus.History(domain.TopicReportUpdated, 0)
	if len(events) != 1 {
		t.Fatalf("expected one report_updated event, got %d", len(events))
	}
	payload := events[0].Payload
	if payload["old_version"] != "v1.0" || payload["new_version"] != "v2.0" {
		t.Errorf("event versions: %v", payload)
	}
	comparison, ok := payload["comparison"].(domain.RevisionComparison)
	if !ok {
		t.Fatalf("comparison payload has type %T", payload["comparison"])
	}
	if len(comparison.RevisionReasons) == 0 {
		t.Error("expected non-empty revision reasons")
	}
	if comparison.RevisionReasons[0].WhyChanged == "" {
		t.Error("expected why_changed to be populated")
	}
	if !strings.Contains(comparison.RevisionSummary, "reversed") {
		t.Errorf("revision summary = %q", comparison.RevisionSummary)
	}
}

func TestRevisionGateDeclines(t *testing.T) {
	responses := revisionResponses()
	responses[revisionGateSystemPrompt] = gateNoJSON
	h := newRevisionHarness(t, responses)
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}
	h.ingestFact(ctx, "the office plants were watered")

	if v := h.session.Report().Version; v != "v1.0" {
		t.Errorf("version = %q, gate decline must not revise", v)
	}
}

func TestRevisionDroppedWhileGuardHeld(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if !h.session.TryBeginRevision() {
		t.Fatal("could not claim guard")
	}
	h.ingestFact(ctx, "cut channel A budget by half")
	h.session.EndRevision()

	if v := h.session.Report().Version; v != "v1.0" {
		t.Errorf("version = %q, trigger under held guard must be dropped", v)
	}
}

func TestAtMostOneConcurrentRevision(t *testing.T) {
	responses := revisionResponses()
	h := newRevisionHarness(t, responses)
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// Make the first gate call block so a second trigger lands while the
	// guard is held.
	entered := make(chan struct{})
	release := make(chan struct{})
	gated := false
	base := h.mock.CompleteFunc
	h.mock.CompleteFunc = func(ctx context.Context, messages []domain.Message) (string, error) {
		if strings.HasPrefix(messages[0].Content, revisionGateSystemPrompt) && !gated {
			gated = true
			close(entered)
			<-release
		}
		return base(ctx, messages)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ingestFact(ctx, "cut channel A budget by half")
	}()

	<-entered
	h.ingestFact(ctx, "freeze all channel A campaigns") // dropped: guard held
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first revision did not finish")
	}

	if v := h.session.Report().Version; v != "v2.0" {
		t.Errorf("version = %q, want exactly one revision (v2.0)", v)
	}
	if events := h.bus.History(domain.TopicReportUpdated, 0); len(events) != 1 {
		t.Errorf("expected one report_updated event, got %d", len(events))
	}
}

func TestConfirmDuringRevisionDoesNotOverwrite(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// Block the revision at the gate call so Confirm lands while the
	// revision is still in flight.
	entered := make(chan struct{})
	release := make(chan struct{})
	base := h.mock.CompleteFunc
	h.mock.CompleteFunc = func(ctx context.Context, messages []domain.Message) (string, error) {
		if strings.HasPrefix(messages[0].Content, revisionGateSystemPrompt) {
			close(entered)
			<-release
		}
		return base(ctx, messages)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ingestFact(ctx, "cut channel A budget by half")
	}()

	<-entered
	tasks, _, err := h.reports.Confirm(ctx, []domain.ApprovedAction{{Title: "Rebalance channel budget", Owner: "CMO", Deadline: "2026-09-15"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("revision did not finish")
	}

	report := h.session.Report()
	if report.Status != domain.ReportStatusConfirmed || report.Version != "v1.0" {
		t.Errorf("confirmed report overwritten: version=%s status=%s", report.Version, report.Status)
	}
	if len(report.Tasks) != len(tasks) {
		t.Errorf("minted tasks lost: got %d, want %d", len(report.Tasks), len(tasks))
	}
	if events := h.bus.History(domain.TopicReportUpdated, 0); len(events) != 0 {
		t.Errorf("expected no report_updated events, got %d", len(events))
	}
}

func TestRevisionReusesSuppliedMetrics(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, map[string]any{"mrr_usd": 48500}); err != nil {
		t.Fatal(err)
	}

	h.ingestFact(ctx, "cut channel A budget by half")

	if v := h.session.Report().Version; v != "v2.0" {
		t.Fatalf("version = %q, want v2.0", v)
	}

	// The revision's summary stage must see the metrics the CEO supplied to
	// Generate, not values reconstructed from model output.
	var summaryCalls []string
	for _, call := range h.mock.CompleteCalls {
		if strings.HasPrefix(call[0].Content, summarySystemPrompt) {
			summaryCalls = append(summaryCalls, call[len(call)-1].Content)
		}
	}
	if len(summaryCalls) != 2 {
		t.Fatalf("expected two summary stage calls, got %d", len(summaryCalls))
	}
	if !strings.Contains(summaryCalls[1], "48500") {
		t.Errorf("revision summary prompt lacks the supplied metrics: %q", summaryCalls[1])
	}
}

func TestGuardReleasedAfterGateError(t *testing.T) {
	h := newRevisionHarness(t, revisionResponses())
	ctx := context.Background()

	if _, err := h.reports.Generate(ctx, nil); err != nil {
		t.Fatal(err)
	}

	base := h.mock.CompleteFunc
	h.mock.CompleteFunc = func(ctx context.Context, messages []domain.Message) (string, error) {
		if strings.HasPrefix(messages[0].Content, revisionGateSystemPrompt) {
			return "", errors.New("provider down")
		}
		return base(ctx, messages)
	}

	h.ingestFact(ctx, "cut channel A budget by half")

	if v := h.session.Report().Version; v != "v1.0" {
		t.Errorf("version = %q, failed gate must not revise", v)
	}
	if !h.session.TryBeginRevision() {
		t.Fatal("guard still held after errored revision attempt")
	}
	h.session.EndRevision()
}
