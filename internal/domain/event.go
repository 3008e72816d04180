package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event bus topics.
const (
	TopicFactIngested     = "fact_ingested"
	TopicConflictDetected = "conflict_detected"
	TopicReportGenerated  = "report_generated"
	TopicReportUpdated    = "report_updated"
	TopicActionConfirmed  = "action_confirmed"
	TopicNodeStatus       = "node_status"
)

// Event is a record dispatched on the event bus. Events are immutable once
// created; the bus keeps a bounded history of them.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Topic     string         `json:"topic"`
	Payload   map[string]any `json:"payload"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
}
