package domain

import (
	"context"

	"github.com/google/uuid"
)

type FactStore interface {
	Create(ctx context.Context, f *Fact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Fact, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Fact, error)
	List(ctx context.Context, filter ListFilter) ([]Fact, error)
	Search(ctx context.Context, embedding []float32, opts SearchOpts) ([]FactWithScore, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Completion struct {
	Content string `json:"content"`
}

type ChunkType string

const (
	ChunkContent   ChunkType = "content"
	ChunkToolCalls ChunkType = "tool_calls"
	ChunkDone      ChunkType = "done"
	ChunkError     ChunkType = "error"
)

// ToolCallDelta is a fragment of a streamed tool call. Fragments sharing an
// index belong to the same call and must be accumulated until a done chunk
// arrives.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolCall is a fully accumulated tool invocation.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type StreamChunk struct {
	Type      ChunkType       `json:"type"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
	Err       string          `json:"error,omitempty"`
}

// CompletionClient is the language-model collaborator. Implementations must
// not panic on provider failures; they return errors (Complete) or error
// chunks (Stream).
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, temperature float32) (*Completion, error)
	Stream(ctx context.Context, messages []Message, temperature float32) (<-chan StreamChunk, error)
}
