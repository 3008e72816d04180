package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallAccumulator(t *testing.T) {
	acc := NewToolCallAccumulator()

	acc.Add([]domain.ToolCallDelta{
		{Index: 0, ID: "call_1", Name: "search_facts"},
		{Index: 1, ID: "call_2", Name: "add_fact"},
	})
	acc.Add([]domain.ToolCallDelta{
		{Index: 0, Arguments: `{"query":`},
		{Index: 1, Arguments: `{"content":"x"}`},
	})
	acc.Add([]domain.ToolCallDelta{
		{Index: 0, Arguments: `"budget"}`},
	})

	calls := acc.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "search_facts", calls[0].Name)
	assert.Equal(t, `{"query":"budget"}`, calls[0].Arguments)
	assert.Equal(t, "add_fact", calls[1].Name)
	assert.Equal(t, `{"content":"x"}`, calls[1].Arguments)
}

func TestMockClientResponseQueue(t *testing.T) {
	m := NewMockClient()
	m.Responses = []string{"first", "second"}
	m.CompleteResponse = "fallback"

	ctx := context.Background()
	for _, want := range []string{"first", "second", "fallback", "fallback"} {
		c, err := m.Complete(ctx, []domain.Message{{Role: "user", Content: "hi"}}, 0)
		require.NoError(t, err)
		assert.Equal(t, want, c.Content)
	}
	assert.Equal(t, 4, m.CallCount())
}

func TestMockClientStreamTerminates(t *testing.T) {
	m := NewMockClient()
	m.CompleteResponse = "streamed"

	ch, err := m.Stream(context.Background(), nil, 0)
	require.NoError(t, err)

	var chunks []domain.StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.ChunkContent, chunks[0].Type)
	assert.Equal(t, "streamed", chunks[0].Content)
	assert.Equal(t, domain.ChunkDone, chunks[1].Type)
}

func TestMockClientStreamError(t *testing.T) {
	m := NewMockClient()
	m.CompleteErr = errors.New("provider down")

	ch, err := m.Stream(context.Background(), nil, 0)
	require.NoError(t, err)

	var chunks []domain.StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ChunkError, chunks[0].Type)
	assert.Contains(t, chunks[0].Err, "provider down")
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient("gemini", "key")
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, "")
	assert.Error(t, err)

	c, err := NewClient(ProviderMock, "")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
