package domain

import "time"

// EvidenceRef records which facts a stage grounded its output in.
type EvidenceRef struct {
	Stage     string    `json:"stage"`
	FactIDs   []string  `json:"fact_ids"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentState is the run context threaded through pipeline stages. It is
// created fresh per run, owned exclusively by that run, and discarded at run
// end except for what the pipeline copies into the Report.
type AgentState struct {
	ScenarioID        string          `json:"scenario_id"`
	CurrentStage      string          `json:"current_stage"`
	Input             map[string]any  `json:"input"`
	RecalledFacts     []FactWithScore `json:"recalled_facts"`
	StageOutputs      map[string]any  `json:"stage_outputs"`
	EvidenceChain     []EvidenceRef   `json:"evidence_chain"`
	NeedsConfirmation bool            `json:"needs_confirmation"`
	Error             string          `json:"error,omitempty"`
}

// RunResult is what a pipeline run returns to its caller: either the full
// outputs or the partial result plus the stage error that stopped it.
type RunResult struct {
	Success       bool           `json:"success"`
	Outputs       map[string]any `json:"outputs,omitempty"`
	EvidenceChain []EvidenceRef  `json:"evidence_chain,omitempty"`
	Error         string         `json:"error,omitempty"`
}
