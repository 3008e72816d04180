package domain

import "time"

type ReportStatus string

const (
	ReportStatusPendingConfirmation ReportStatus = "pending_confirmation"
	ReportStatusConfirmed           ReportStatus = "confirmed"
)

const TaskStatusPending = "pending"

type KeyMetric struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Status string `json:"status"`
	Change string `json:"change"`
}

type Summary struct {
	Text        string      `json:"summary_text"`
	KeyMetrics  []KeyMetric `json:"key_metrics"`
	EvidenceIDs []string    `json:"evidence_ids"`
}

type Risk struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Severity    string   `json:"severity"`
	EvidenceIDs []string `json:"evidence_ids"`
}

type Recommendation struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Reason            string   `json:"reason"`
	EvidenceIDs       []string `json:"evidence_ids"`
	ExpectedImpact    string   `json:"expected_impact"`
	SuggestedOwner    string   `json:"suggested_owner"`
	SuggestedDeadline string   `json:"suggested_deadline"`
	Priority          int      `json:"priority"`
}

// ApprovedAction is a recommendation the CEO signed off on, with the final
// owner and deadline assignment.
type ApprovedAction struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Owner          string   `json:"owner"`
	Deadline       string   `json:"deadline"`
	EvidenceIDs    []string `json:"evidence_ids,omitempty"`
	ExpectedImpact string   `json:"expected_impact,omitempty"`
}

type Task struct {
	ID             string    `json:"task_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Owner          string    `json:"owner"`
	Deadline       string    `json:"deadline"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	EvidenceIDs    []string  `json:"evidence_ids,omitempty"`
	ExpectedImpact string    `json:"expected_impact,omitempty"`
}

// Report is the versioned artifact produced by the decision pipeline.
// Once Status is confirmed the report is terminal: reactive revision must
// not overwrite it, only a fresh user-initiated generation may replace it.
type Report struct {
	Version         string           `json:"version"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Summary         Summary          `json:"summary"`
	Risks           []Risk           `json:"risks"`
	Recommendations []Recommendation `json:"recommendations"`
	Status          ReportStatus     `json:"status"`
	Tasks           []Task           `json:"tasks,omitempty"`
	SyncLog         string           `json:"sync_log,omitempty"`
}

// Clone returns a deep copy so readers never share slices with the live
// session-owned report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Summary.KeyMetrics = append([]KeyMetric(nil), r.Summary.KeyMetrics...)
	cp.Summary.EvidenceIDs = append([]string(nil), r.Summary.EvidenceIDs...)
	cp.Risks = append([]Risk(nil), r.Risks...)
	for i := range cp.Risks {
		cp.Risks[i].EvidenceIDs = append([]string(nil), r.Risks[i].EvidenceIDs...)
	}
	cp.Recommendations = append([]Recommendation(nil), r.Recommendations...)
	for i := range cp.Recommendations {
		cp.Recommendations[i].EvidenceIDs = append([]string(nil), r.Recommendations[i].EvidenceIDs...)
	}
	cp.Tasks = append([]Task(nil), r.Tasks...)
	for i := range cp.Tasks {
		cp.Tasks[i].EvidenceIDs = append([]string(nil), r.Tasks[i].EvidenceIDs...)
	}
	return &cp
}

type RevisionReason struct {
	ActionIndex int    `json:"action_index"`
	OldTitle    string `json:"old_title"`
	NewTitle    string `json:"new_title"`
	WhyChanged  string `json:"why_changed"`
}

// RevisionComparison explains to the CEO why a reactive revision changed the
// report. Read-only after creation.
type RevisionComparison struct {
	OldVersion      string           `json:"old_version"`
	NewVersion      string           `json:"new_version"`
	RevisionSummary string           `json:"revision_summary"`
	RevisionReasons []RevisionReason `json:"revision_reasons"`
	TriggerSources  []string         `json:"trigger_sources"`
}
