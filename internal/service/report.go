package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/jsonx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoReport         = errors.New("no report has been generated")
	ErrAlreadyConfirmed = errors.New("report is already confirmed")
	ErrNoActions        = errors.New("at least one approved action is required")
)

// Stage names.
const (
	StageSummary        = "summary"
	StageRiskDetection  = "risk_detection"
	StageRecommendation = "recommendation"
)

const fallbackSummaryText = "Summary generation is temporarily unavailable. The report below is based on the remaining analysis stages."

// ReportService runs the decision pipeline: Summary, RiskDetection and
// Recommendation stages over recalled facts, producing the session's
// versioned report, and handles CEO confirmation.
type ReportService struct {
	session *PipelineSession
	facts   *FactService
	llm     domain.CompletionClient
	bus     *bus.Bus
	runner  *Runner
	logger  *zap.Logger
}

func NewReportService(session *PipelineSession, facts *FactService, llm domain.CompletionClient, b *bus.Bus, logger *zap.Logger) *ReportService {
	return &ReportService{
		session: session,
		facts:   facts,
		llm:     llm,
		bus:     b,
		runner:  NewRunner(b, logger),
		logger:  logger,
	}
}

// Generate runs a fresh pipeline pass and installs the result as the current
// report with the next version. Stage failures degrade per stage policy; the
// run itself does not fail on them.
func (s *ReportService) Generate(ctx context.Context, metrics map[string]any) (*domain.Report, error) {
	version := s.session.NextVersion()
	report, _, err := s.run(ctx, version, metrics)
	if err != nil {
		return nil, err
	}

	s.session.SetMetrics(metrics)
	s.session.SetReport(report)
	s.bus.Emit(ctx, domain.TopicReportGenerated, map[string]any{
		"version":      report.Version,
		"risk_count":   len(report.Risks),
		"action_count": len(report.Recommendations),
	}, "report_pipeline")

	return report.Clone(), nil
}

// run executes the three analysis stages and assembles a pending report
// stamped with version. Used by both Generate and the revision controller.
func (s *ReportService) run(ctx context.Context, version string, metrics map[string]any) (*domain.Report, *domain.AgentState, error) {
	state := newAgentState(uuid.NewString(), map[string]any{"metrics": metrics})

	result := s.runner.Execute(ctx, state, []Stage{
		{Name: StageSummary, Run: s.summaryStage, Fallback: summaryFallback},
		{Name: StageRiskDetection, Run: s.riskStage, Fallback: riskFallback},
		{Name: StageRecommendation, Run: s.recommendationStage, Fallback: recommendationFallback},
	})
	if !result.Success {
		return nil, state, fmt.Errorf("pipeline run: %s", result.Error)
	}

	report := &domain.Report{
		Version:         version,
		GeneratedAt:     time.Now().UTC(),
		Summary:         result.Outputs[StageSummary].(domain.Summary),
		Risks:           result.Outputs[StageRiskDetection].([]domain.Risk),
		Recommendations: result.Outputs[StageRecommendation].([]domain.Recommendation),
		Status:          domain.ReportStatusPendingConfirmation,
	}
	return report, state, nil
}

func (s *ReportService) summaryStage(ctx context.Context, state *domain.AgentState) (any, error) {
	recalled, err := s.facts.Search(ctx, "current strategy, key metrics and overall business status",
		domain.SearchOpts{TopK: recallTopK})
	if err != nil {
		s.logger.Warn("summary recall failed, continuing without facts", zap.Error(err))
		recalled = nil
	}
	state.RecalledFacts = recalled

	metricsJSON, _ := json.Marshal(state.Input["metrics"])
	user := fmt.Sprintf("Recalled facts:\n%s\nLatest metrics:\n%s", factDigest(recalled), metricsJSON)

	completion, err := s.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: user},
	}, 0.3)
	if err != nil {
		return nil, err
	}
	if completion.Content == "" {
		return nil, errors.New("empty summary content")
	}

	var out domain.Summary
	if err := jsonx.Decode(completion.Content, &out); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	out.EvidenceIDs = factIDs(recalled)

	appendEvidence(state, StageSummary, out.EvidenceIDs)
	return out, nil
}

func summaryFallback(state *domain.AgentState) any {
	return domain.Summary{
		Text:        fallbackSummaryText,
		KeyMetrics:  []domain.KeyMetric{},
		EvidenceIDs: factIDs(state.RecalledFacts),
	}
}

func (s *ReportService) riskStage(ctx context.Context, state *domain.AgentState) (any, error) {
	recalled, err := s.facts.Search(ctx, "strategic direction, channel performance and known risks",
		domain.SearchOpts{TopK: recallTopK})
	if err != nil {
		return nil, fmt.Errorf("risk recall: %w", err)
	}

	summary, _ := state.StageOutputs[StageSummary].(domain.Summary)
	user := fmt.Sprintf("Recalled facts:\n%s\nToday's summary:\n%s", factDigest(recalled), summary.Text)

	completion, err := s.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: riskSystemPrompt},
		{Role: "user", Content: user},
	}, 0.3)
	if err != nil {
		return nil, err
	}
	if completion.Content == "" {
		return nil, errors.New("empty risk content")
	}

	var out struct {
		Risks []domain.Risk `json:"risks"`
	}
	if err := jsonx.Decode(completion.Content, &out); err != nil {
		return nil, fmt.Errorf("decode risks: %w", err)
	}

	// A risk the model forgot to ground gets the two most relevant recalled
	// facts as evidence rather than going out uncited.
	backfill := factIDs(recalled)
	if len(backfill) > 2 {
		backfill = backfill[:2]
	}
	var cited []string
	for i := range out.Risks {
		if len(out.Risks[i].EvidenceIDs) == 0 {
			out.Risks[i].EvidenceIDs = backfill
		}
		cited = append(cited, out.Risks[i].EvidenceIDs...)
	}

	appendEvidence(state, StageRiskDetection, cited)
	return out.Risks, nil
}

func riskFallback(*domain.AgentState) any {
	return []domain.Risk{}
}

func (s *ReportService) recommendationStage(ctx context.Context, state *domain.AgentState) (any, error) {
	recalled, err := s.facts.Search(ctx, "strategic plan, priorities and planned initiatives",
		domain.SearchOpts{TopK: recallTopK})
	if err != nil {
		return nil, fmt.Errorf("recommendation recall: %w", err)
	}

	summary, _ := state.StageOutputs[StageSummary].(domain.Summary)
	risks, _ := state.StageOutputs[StageRiskDetection].([]domain.Risk)
	risksJSON, _ := json.Marshal(risks)

	user := fmt.Sprintf("Recalled facts:\n%s\nToday's summary:\n%s\nDetected risks:\n%s",
		factDigest(recalled), summary.Text, risksJSON)

	completion, err := s.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: recommendationSystemPrompt},
		{Role: "user", Content: user},
	}, 0.3)
	if err != nil {
		return nil, err
	}
	if completion.Content == "" {
		return nil, errors.New("empty recommendation content")
	}

	var out struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	if err := jsonx.Decode(completion.Content, &out); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	var cited []string
	for _, rec := range out.Recommendations {
		cited = append(cited, rec.EvidenceIDs...)
	}
	appendEvidence(state, StageRecommendation, cited)
	return out.Recommendations, nil
}

func recommendationFallback(*domain.AgentState) any {
	return []domain.Recommendation{}
}

// GetReport returns a copy of the current report.
func (s *ReportService) GetReport() (*domain.Report, error) {
	r := s.session.Report()
	if r == nil {
		return nil, ErrNoReport
	}
	return r, nil
}

// Confirm mints tasks from the approved actions, freezes the report as
// confirmed, and emits action_confirmed. Confirmation is terminal; a
// confirmed report can only be replaced by a fresh Generate.
func (s *ReportService) Confirm(ctx context.Context, actions []domain.ApprovedAction, syncToBoard bool) ([]domain.Task, string, error) {
	if len(actions) == 0 {
		return nil, "", ErrNoActions
	}

	now := time.Now().UTC()
	tasks := make([]domain.Task, 0, len(actions))
	for _, a := range actions {
		tasks = append(tasks, domain.Task{
			ID:             uuid.NewString(),
			Title:          a.Title,
			Description:    a.Description,
			Owner:          a.Owner,
			Deadline:       a.Deadline,
			Status:         domain.TaskStatusPending,
			CreatedAt:      now,
			CreatedBy:      "ceo_confirmation",
			EvidenceIDs:    a.EvidenceIDs,
			ExpectedImpact: a.ExpectedImpact,
		})
	}

	syncLog := fmt.Sprintf("%d task(s) created at %s", len(tasks), now.Format(time.RFC3339))
	if syncToBoard {
		syncLog += "; synced to task board"
	}

	var version string
	var confirmErr error
	ok := s.session.Update(func(r *domain.Report) {
		if r.Status == domain.ReportStatusConfirmed {
			confirmErr = ErrAlreadyConfirmed
			return
		}
		r.Status = domain.ReportStatusConfirmed
		r.Tasks = tasks
		r.SyncLog = syncLog
		version = r.Version
	})
	if !ok {
		return nil, "", ErrNoReport
	}
	if confirmErr != nil {
		return nil, "", confirmErr
	}

	s.bus.Emit(ctx, domain.TopicActionConfirmed, map[string]any{
		"version":    version,
		"task_count": len(tasks),
		"sync_log":   syncLog,
	}, "report_pipeline")

	return tasks, syncLog, nil
}
