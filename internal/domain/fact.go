package domain

import (
	"time"

	"github.com/google/uuid"
)

type FactType string

const (
	FactTypeStrategicDecision FactType = "strategic_decision"
	FactTypeDataInsight       FactType = "data_insight"
	FactTypeActionItem        FactType = "action_item"
	FactTypeChatNote          FactType = "chat_note"
)

func ValidFactType(t string) bool {
	switch FactType(t) {
	case FactTypeStrategicDecision, FactTypeDataInsight, FactTypeActionItem, FactTypeChatNote:
		return true
	}
	return false
}

// Fact is a unit of remembered, searchable business information. Its ID is
// the stable evidence handle cited by generated report content.
type Fact struct {
	ID        uuid.UUID      `json:"id"`
	Type      FactType       `json:"type"`
	Content   string         `json:"content"`
	Source    string         `json:"source,omitempty"`
	Enabled   bool           `json:"enabled"`
	Embedding []float32      `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type FactWithScore struct {
	Fact
	Score float32 `json:"score"`
}

// SearchOpts controls semantic fact search. Disabled facts are excluded
// unless IncludeDisabled is set.
type SearchOpts struct {
	TopK            int
	Type            *FactType
	IncludeDisabled bool
}

// ListFilter controls non-semantic fact listing.
type ListFilter struct {
	Type        *FactType
	EnabledOnly bool
}
