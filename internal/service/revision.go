package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/jsonx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RevisionController listens for fact_ingested events and revises the
// current report when a new fact conflicts with or materially extends its
// recommended actions. At most one revision runs at a time; triggers
// arriving while one is in flight are dropped, not queued — the running
// revision re-reads the fact store, so dropped triggers' facts still land in
// the next pass.
type RevisionController struct {
	session *PipelineSession
	reports *ReportService
	facts   *FactService
	llm     domain.CompletionClient
	bus     *bus.Bus
	logger  *zap.Logger

	sub *bus.Subscription
}

func NewRevisionController(session *PipelineSession, reports *ReportService, facts *FactService, llm domain.CompletionClient, b *bus.Bus, logger *zap.Logger) *RevisionController {
	return &RevisionController{
		session: session,
		reports: reports,
		facts:   facts,
		llm:     llm,
		bus:     b,
		logger:  logger,
	}
}

// Start subscribes the controller to fact_ingested events.
func (c *RevisionController) Start() {
	c.sub = c.bus.Subscribe(domain.TopicFactIngested, c.OnFactIngested)
}

// Stop removes the subscription.
func (c *RevisionController) Stop() {
	if c.sub != nil {
		c.bus.Unsubscribe(c.sub)
		c.sub = nil
	}
}

// OnFactIngested is the bus handler. Returning an error only makes the bus
// log it; revision failures never propagate to the emitter.
func (c *RevisionController) OnFactIngested(ctx context.Context, e domain.Event) error {
	report := c.session.Report()
	if report == nil {
		return nil
	}
	if report.Status == domain.ReportStatusConfirmed {
		c.logger.Info("ignoring fact for confirmed report",
			zap.String("version", report.Version))
		return nil
	}

	if !c.session.TryBeginRevision() {
		c.logger.Info("revision already in flight, dropping trigger",
			zap.String("event_id", e.ID.String()))
		return nil
	}
	defer c.session.EndRevision()

	facts, err := c.triggerFacts(ctx, e)
	if err != nil {
		return fmt.Errorf("load trigger facts: %w", err)
	}
	if len(facts) == 0 {
		return nil
	}

	decide, reason := c.shouldRevise(ctx, report, facts)
	if !decide {
		c.logger.Info("new facts do not warrant a revision", zap.String("reason", reason))
		return nil
	}

	return c.revise(ctx, report, facts, e)
}

// triggerFacts resolves the fact ids carried on the event.
func (c *RevisionController) triggerFacts(ctx context.Context, e domain.Event) ([]domain.Fact, error) {
	raw, _ := e.Payload["fact_ids"].([]any)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return c.facts.GetByIDs(ctx, ids)
}

// shouldRevise asks the model whether the new facts conflict with or
// materially extend the report's recommendations. Gate failures err on the
// side of not revising.
func (c *RevisionController) shouldRevise(ctx context.Context, report *domain.Report, facts []domain.Fact) (bool, string) {
	recsJSON, _ := json.Marshal(report.Recommendations)

	var factText string
	for _, f := range facts {
		factText += fmt.Sprintf("- (%s) %s\n", f.Type, f.Content)
	}

	completion, err := c.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: revisionGateSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Current recommended actions:\n%s\nNew facts:\n%s", recsJSON, factText)},
	}, 0)
	if err != nil {
		c.logger.Warn("revision gate failed, skipping revision", zap.Error(err))
		return false, ""
	}

	var verdict struct {
		ShouldRevise bool   `json:"should_revise"`
		Reason       string `json:"reason"`
	}
	if err := jsonx.Decode(completion.Content, &verdict); err != nil {
		c.logger.Warn("revision gate verdict undecodable, skipping revision", zap.Error(err))
		return false, ""
	}
	return verdict.ShouldRevise, verdict.Reason
}

func (c *RevisionController) revise(ctx context.Context, old *domain.Report, facts []domain.Fact, trigger domain.Event) error {
	version := c.session.NextVersion()
	c.logger.Info("revising report",
		zap.String("old_version", old.Version),
		zap.String("new_version", version),
		zap.Int("trigger_facts", len(facts)))

	revised, _, err := c.reports.run(ctx, version, c.session.Metrics())
	if err != nil {
		return fmt.Errorf("revision run: %w", err)
	}
	if !c.session.InstallRevision(revised) {
		c.logger.Info("report confirmed during revision, discarding revised report",
			zap.String("confirmed_version", old.Version),
			zap.String("discarded_version", revised.Version))
		return nil
	}

	comparison := c.compare(ctx, old, revised, facts)

	c.bus.Emit(ctx, domain.TopicReportUpdated, map[string]any{
		"old_version": old.Version,
		"new_version": revised.Version,
		"comparison":  comparison,
		"trigger_id":  trigger.ID.String(),
	}, "revision_controller")
	return nil
}

// compare builds the RevisionComparison shown to the CEO. A failed
// comparison still yields a usable value with empty reasons; the revision
// itself already happened.
func (c *RevisionController) compare(ctx context.Context, old, revised *domain.Report, facts []domain.Fact) domain.RevisionComparison {
	comparison := domain.RevisionComparison{
		OldVersion: old.Version,
		NewVersion: revised.Version,
	}
	for _, f := range facts {
		comparison.TriggerSources = append(comparison.TriggerSources, f.Source)
	}

	oldJSON, _ := json.Marshal(old.Recommendations)
	newJSON, _ := json.Marshal(revised.Recommendations)
	var factText string
	for _, f := range facts {
		factText += fmt.Sprintf("- %s\n", f.Content)
	}

	completion, err := c.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: revisionComparisonSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Old actions:\n%s\nNew actions:\n%s\nTriggering facts:\n%s", oldJSON, newJSON, factText)},
	}, 0)
	if err != nil {
		c.logger.Warn("revision comparison failed", zap.Error(err))
		comparison.RevisionSummary = fmt.Sprintf("Report revised from %s to %s after new facts arrived.", old.Version, revised.Version)
		return comparison
	}

	var out struct {
		RevisionSummary string                  `json:"revision_summary"`
		RevisionReasons []domain.RevisionReason `json:"revision_reasons"`
	}
	if err := jsonx.Decode(completion.Content, &out); err != nil {
		c.logger.Warn("revision comparison undecodable", zap.Error(err))
		comparison.RevisionSummary = fmt.Sprintf("Report revised from %s to %s after new facts arrived.", old.Version, revised.Version)
		return comparison
	}

	comparison.RevisionSummary = out.RevisionSummary
	comparison.RevisionReasons = out.RevisionReasons
	return comparison
}
