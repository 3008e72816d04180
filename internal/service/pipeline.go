package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"go.uber.org/zap"
)

// recallTopK bounds how many facts a stage pulls in as grounding.
const recallTopK = 5

// Stage is one step of a pipeline run. Run produces the stage's output from
// the accumulated state. Fallback, when set, builds a degraded output used in
// place of a failed Run; a stage without a fallback stops the run on error.
type Stage struct {
	Name     string
	Run      func(ctx context.Context, state *domain.AgentState) (any, error)
	Fallback func(state *domain.AgentState) any
}

// Runner executes an ordered list of stages against a fresh AgentState. It is
// the single generic harness: stages never chain each other directly.
type Runner struct {
	bus    *bus.Bus
	logger *zap.Logger
}

func NewRunner(b *bus.Bus, logger *zap.Logger) *Runner {
	return &Runner{bus: b, logger: logger}
}

// Execute runs the stages in order. A stage error with a fallback degrades
// and continues; without one it records the error and returns the partial
// result. Stage panics are recovered and treated as stage errors. Each stage
// emits advisory node_status working/completed events.
func (r *Runner) Execute(ctx context.Context, state *domain.AgentState, stages []Stage) domain.RunResult {
	for _, stage := range stages {
		state.CurrentStage = stage.Name
		r.emitNodeStatus(ctx, state.ScenarioID, stage.Name, "working")

		output, err := r.runStage(ctx, state, stage)
		if err != nil {
			if stage.Fallback == nil {
				state.Error = fmt.Sprintf("stage %s: %v", stage.Name, err)
				r.logger.Error("pipeline stage failed",
					zap.String("scenario_id", state.ScenarioID),
					zap.String("stage", stage.Name),
					zap.Error(err))
				return domain.RunResult{
					Success:       false,
					Outputs:       state.StageOutputs,
					EvidenceChain: state.EvidenceChain,
					Error:         state.Error,
				}
			}
			r.logger.Warn("pipeline stage degraded to fallback",
				zap.String("scenario_id", state.ScenarioID),
				zap.String("stage", stage.Name),
				zap.Error(err))
			output = stage.Fallback(state)
		}

		state.StageOutputs[stage.Name] = output
		r.emitNodeStatus(ctx, state.ScenarioID, stage.Name, "completed")
	}

	return domain.RunResult{
		Success:       true,
		Outputs:       state.StageOutputs,
		EvidenceChain: state.EvidenceChain,
	}
}

func (r *Runner) runStage(ctx context.Context, state *domain.AgentState, stage Stage) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return stage.Run(ctx, state)
}

func (r *Runner) emitNodeStatus(ctx context.Context, scenarioID, stage, status string) {
	r.bus.Emit(ctx, domain.TopicNodeStatus, map[string]any{
		"scenario_id": scenarioID,
		"stage":       stage,
		"status":      status,
	}, "pipeline")
}

// newAgentState builds the per-run context. It is owned exclusively by the
// run and discarded afterwards.
func newAgentState(scenarioID string, input map[string]any) *domain.AgentState {
	if input == nil {
		input = map[string]any{}
	}
	return &domain.AgentState{
		ScenarioID:   scenarioID,
		Input:        input,
		StageOutputs: map[string]any{},
	}
}

// appendEvidence records which facts a stage grounded its output in. The
// chain is append-only; earlier entries are never rewritten.
func appendEvidence(state *domain.AgentState, stage string, factIDs []string) {
	state.EvidenceChain = append(state.EvidenceChain, domain.EvidenceRef{
		Stage:     stage,
		FactIDs:   factIDs,
		Timestamp: time.Now().UTC(),
	})
}

func factIDs(facts []domain.FactWithScore) []string {
	ids := make([]string, 0, len(facts))
	for _, f := range facts {
		ids = append(ids, f.ID.String())
	}
	return ids
}

// factDigest renders recalled facts for a prompt, id first so the model can
// cite them.
func factDigest(facts []domain.FactWithScore) string {
	if len(facts) == 0 {
		return "(no relevant facts recorded)"
	}
	var out string
	for _, f := range facts {
		out += fmt.Sprintf("- [id=%s] (%s) %s\n", f.ID, f.Type, f.Content)
	}
	return out
}
