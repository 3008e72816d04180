package llm

import (
	"sort"

	"github.com/Harshitk-cp/daybrief/internal/domain"
)

// ToolCallAccumulator reassembles tool calls from streamed deltas. Providers
// split a call's id, name, and argument JSON across many chunks keyed by
// index; Add merges them and Calls returns the finished set in index order.
type ToolCallAccumulator struct {
	calls map[int]*domain.ToolCall
}

func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{calls: make(map[int]*domain.ToolCall)}
}

func (a *ToolCallAccumulator) Add(deltas []domain.ToolCallDelta) {
	for _, d := range deltas {
		call, ok := a.calls[d.Index]
		if !ok {
			call = &domain.ToolCall{}
			a.calls[d.Index] = call
		}
		if d.ID != "" {
			call.ID = d.ID
		}
		if d.Name != "" {
			call.Name = d.Name
		}
		call.Arguments += d.Arguments
	}
}

func (a *ToolCallAccumulator) Calls() []domain.ToolCall {
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]domain.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, *a.calls[i])
	}
	return out
}
