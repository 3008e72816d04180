package service

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Harshitk-cp/daybrief/internal/domain"
)

// PipelineSession owns the single current report, its generation counter, and
// the revision re-entrancy guard. The report is mutated only while holding
// the session mutex; readers get deep copies.
type PipelineSession struct {
	mu         sync.Mutex
	report     *domain.Report
	metrics    map[string]any
	generation int

	revising atomic.Bool
}

func NewPipelineSession() *PipelineSession {
	return &PipelineSession{}
}

// Report returns a deep copy of the current report, or nil when none exists.
func (s *PipelineSession) Report() *domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.Clone()
}

// SetReport installs a freshly generated report and returns it. The version
// must already be stamped via NextVersion.
func (s *PipelineSession) SetReport(r *domain.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = r
}

// InstallRevision installs a revised report unless the current report was
// confirmed while the revision ran. Confirmation is terminal; a late revision
// must not overwrite it. Returns false when the install was refused.
func (s *PipelineSession) InstallRevision(r *domain.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil && s.report.Status == domain.ReportStatusConfirmed {
		return false
	}
	s.report = r
	return true
}

// SetMetrics retains the metric inputs supplied to the last Generate so a
// revision regenerates against the numbers the CEO actually provided.
func (s *PipelineSession) SetMetrics(m map[string]any) {
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = cp
}

// Metrics returns a copy of the retained metric inputs.
func (s *PipelineSession) Metrics() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]any, len(s.metrics))
	for k, v := range s.metrics {
		cp[k] = v
	}
	return cp
}

// Update applies fn to the live report under the session lock. fn must not
// retain references past its return. Returns false when no report exists.
func (s *PipelineSession) Update(fn func(r *domain.Report)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return false
	}
	fn(s.report)
	return true
}

// NextVersion bumps the generation counter and returns the new version
// string. Versions are strictly increasing for the lifetime of the session,
// regardless of how the run that requested them ends.
func (s *PipelineSession) NextVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return fmt.Sprintf("v%d.0", s.generation)
}

// CurrentVersion returns the version of the current report, or "" when none.
func (s *PipelineSession) CurrentVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return ""
	}
	return s.report.Version
}

// Confirmed reports whether the current report is terminally confirmed.
func (s *PipelineSession) Confirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report != nil && s.report.Status == domain.ReportStatusConfirmed
}

// TryBeginRevision claims the revision guard. At most one revision runs at a
// time; a second trigger arriving while the guard is held must be dropped by
// the caller, not queued.
func (s *PipelineSession) TryBeginRevision() bool {
	return s.revising.CompareAndSwap(false, true)
}

// EndRevision releases the guard. Callers defer this immediately after a
// successful TryBeginRevision so the guard is released on every exit path.
func (s *PipelineSession) EndRevision() {
	s.revising.Store(false)
}
