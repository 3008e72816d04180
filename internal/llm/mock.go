package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/daybrief/internal/domain"
)

// MockClient is a configurable completion client for tests and local
// development. Responses can be fixed, queued, or computed per call;
// every Complete invocation is recorded.
type MockClient struct {
	mu sync.Mutex

	// CompleteResponse is returned when the queue and func are unset.
	CompleteResponse string

	// Responses, when non-empty, is consumed FIFO before CompleteResponse
	// applies.
	Responses []string

	// CompleteFunc, when set, takes precedence over both.
	CompleteFunc func(ctx context.Context, messages []domain.Message) (string, error)

	// CompleteErr is returned from every call when set (unless CompleteFunc
	// is set).
	CompleteErr error

	// CompleteCalls records the messages of each Complete/Stream invocation.
	CompleteCalls [][]domain.Message
}

func NewMockClient() *MockClient {
	return &MockClient{CompleteResponse: "mock response"}
}

func (m *MockClient) Complete(ctx context.Context, messages []domain.Message, temperature float32) (*domain.Completion, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, messages)
	fn := m.CompleteFunc
	err := m.CompleteErr
	var content string
	if fn == nil && err == nil {
		if len(m.Responses) > 0 {
			content = m.Responses[0]
			m.Responses = m.Responses[1:]
		} else {
			content = m.CompleteResponse
		}
	}
	m.mu.Unlock()

	// The func runs outside the lock so a blocking script cannot stall
	// concurrent callers.
	if fn != nil {
		content, err := fn(ctx, messages)
		if err != nil {
			return nil, err
		}
		return &domain.Completion{Content: content}, nil
	}

	if err != nil {
		return nil, err
	}

	return &domain.Completion{Content: content}, nil
}

func (m *MockClient) Stream(ctx context.Context, messages []domain.Message, temperature float32) (<-chan domain.StreamChunk, error) {
	out := make(chan domain.StreamChunk, 2)
	go func() {
		defer close(out)
		completion, err := m.Complete(ctx, messages, temperature)
		if err != nil {
			out <- domain.StreamChunk{Type: domain.ChunkError, Err: err.Error()}
			return
		}
		out <- domain.StreamChunk{Type: domain.ChunkContent, Content: completion.Content}
		out <- domain.StreamChunk{Type: domain.ChunkDone}
	}()
	return out, nil
}

// CallCount returns how many completions have been requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CompleteCalls)
}
