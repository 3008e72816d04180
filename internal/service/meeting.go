package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/jsonx"
	"go.uber.org/zap"
)

var ErrExtractionFailed = errors.New("meeting extraction failed")

// conflictScanTopK bounds how many historical facts each new decision is
// compared against.
const conflictScanTopK = 3

// ExtractedNotes is the structured result of meeting note extraction.
type ExtractedNotes struct {
	StrategicDecisions []string          `json:"strategic_decisions"`
	DataInsights       []string          `json:"data_insights"`
	ActionItems        []ExtractedAction `json:"action_items"`
	Meta               map[string]any    `json:"meta,omitempty"`
}

type ExtractedAction struct {
	Task     string `json:"task"`
	Owner    string `json:"owner,omitempty"`
	Deadline string `json:"deadline,omitempty"`
}

// IngestionResult is returned to the caller of ProcessNotes.
type IngestionResult struct {
	Extracted ExtractedNotes    `json:"extracted"`
	FactIDs   []string          `json:"fact_ids"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

// MeetingService ingests raw meeting notes: extract structured facts, store
// the durable ones, scan new decisions for conflicts with history, and emit
// the resulting events.
type MeetingService struct {
	facts    *FactService
	llm      domain.CompletionClient
	detector *ConflictDetector
	bus      *bus.Bus
	logger   *zap.Logger
}

func NewMeetingService(facts *FactService, llm domain.CompletionClient, detector *ConflictDetector, b *bus.Bus, logger *zap.Logger) *MeetingService {
	return &MeetingService{
		facts:    facts,
		llm:      llm,
		detector: detector,
		bus:      b,
		logger:   logger,
	}
}

// ProcessNotes runs the full ingestion flow. Extraction failure is returned
// to the caller; storage and conflict scanning degrade per item.
func (s *MeetingService) ProcessNotes(ctx context.Context, rawText string, metadata map[string]any) (*IngestionResult, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, fmt.Errorf("%w: empty notes", ErrExtractionFailed)
	}

	extracted, err := s.extract(ctx, rawText)
	if err != nil {
		return nil, err
	}

	result := &IngestionResult{Extracted: *extracted}

	// Same-batch writes must not be flagged against each other; collect ids
	// first and exclude them from the scan.
	batch := make(map[string]bool)

	var decisions []*domain.Fact

	for _, content := range extracted.StrategicDecisions {
		f, err := s.facts.Add(ctx, domain.FactTypeStrategicDecision, content, "meeting", metadata)
		if err != nil {
			s.logger.Warn("failed to store extracted decision", zap.Error(err))
			continue
		}
		result.FactIDs = append(result.FactIDs, f.ID.String())
		batch[f.ID.String()] = true
		decisions = append(decisions, f)
	}

	for _, content := range extracted.DataInsights {
		f, err := s.facts.Add(ctx, domain.FactTypeDataInsight, content, "meeting", metadata)
		if err != nil {
			s.logger.Warn("failed to store extracted insight", zap.Error(err))
			continue
		}
		result.FactIDs = append(result.FactIDs, f.ID.String())
		batch[f.ID.String()] = true
	}

	for _, d := range decisions {
		result.Conflicts = append(result.Conflicts, s.scanConflicts(ctx, d, batch)...)
	}

	if len(result.FactIDs) > 0 {
		s.bus.Emit(ctx, domain.TopicFactIngested, map[string]any{
			"fact_ids": toAnySlice(result.FactIDs),
			"source":   "meeting",
		}, "meeting_ingestion")
	}

	for _, conflict := range result.Conflicts {
		s.bus.Emit(ctx, domain.TopicConflictDetected, map[string]any{
			"old_fact_id": conflict.OldFactID,
			"new_fact_id": conflict.NewFactID,
			"old_text":    conflict.OldText,
			"new_text":    conflict.NewText,
			"reason":      conflict.Reason,
		}, "meeting_ingestion")
	}

	return result, nil
}

func (s *MeetingService) extract(ctx context.Context, rawText string) (*ExtractedNotes, error) {
	completion, err := s.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: rawText},
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var extracted ExtractedNotes
	if err := jsonx.Decode(completion.Content, &extracted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return &extracted, nil
}

// scanConflicts compares a newly stored decision against its most related
// historical decisions, excluding facts written in the same batch.
func (s *MeetingService) scanConflicts(ctx context.Context, newFact *domain.Fact, batch map[string]bool) []domain.Conflict {
	decisionType := domain.FactTypeStrategicDecision
	related, err := s.facts.Search(ctx, newFact.Content, domain.SearchOpts{
		TopK: conflictScanTopK + len(batch),
		Type: &decisionType,
	})
	if err != nil {
		s.logger.Warn("conflict scan recall failed", zap.Error(err))
		return nil
	}

	var conflicts []domain.Conflict
	checked := 0
	for _, old := range related {
		if batch[old.ID.String()] {
			continue
		}
		if checked >= conflictScanTopK {
			break
		}
		checked++

		judgment := s.detector.Detect(ctx, newFact.Content, old.Content)
		if !judgment.Conflict {
			continue
		}
		conflicts = append(conflicts, domain.Conflict{
			OldFactID: old.ID.String(),
			NewFactID: newFact.ID.String(),
			OldText:   old.Content,
			NewText:   newFact.Content,
			Reason:    judgment.Reason,
		})
	}
	return conflicts
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
