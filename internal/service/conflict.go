package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/jsonx"
	"go.uber.org/zap"
)

// ConflictDetector judges whether two decisions contradict each other. It
// fails open: when the model cannot be consulted or its output cannot be
// decoded, the pair is reported as non-conflicting so ingestion never blocks
// on detection.
type ConflictDetector struct {
	llm    domain.CompletionClient
	logger *zap.Logger
}

func NewConflictDetector(llm domain.CompletionClient, logger *zap.Logger) *ConflictDetector {
	return &ConflictDetector{llm: llm, logger: logger}
}

func (d *ConflictDetector) Detect(ctx context.Context, newDecision, oldDecision string) domain.ConflictJudgment {
	messages := []domain.Message{
		{Role: "system", Content: conflictSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Existing decision: %s\nNew decision: %s", oldDecision, newDecision)},
	}

	completion, err := d.llm.Complete(ctx, messages, 0)
	if err != nil {
		d.logger.Warn("conflict detection failed, assuming no conflict", zap.Error(err))
		return domain.ConflictJudgment{Conflict: false}
	}
	if completion.Content == "" {
		d.logger.Warn("conflict detection returned empty content, assuming no conflict")
		return domain.ConflictJudgment{Conflict: false}
	}

	var judgment domain.ConflictJudgment
	if err := jsonx.Decode(completion.Content, &judgment); err != nil {
		d.logger.Warn("conflict judgment undecodable, assuming no conflict", zap.Error(err))
		return domain.ConflictJudgment{Conflict: false}
	}
	return judgment
}
