package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// mockDimensions matches text-embedding-3-small so mock vectors fit the
// same pgvector column.
const mockDimensions = 1536

// MockClient produces deterministic embeddings derived from the input text.
// The same text always maps to the same unit vector, so similarity search
// behaves consistently in tests without calling a provider.
type MockClient struct {
	mu sync.Mutex

	// EmbedErr is returned from every call when set.
	EmbedErr error

	// EmbedCalls records each embedded text.
	EmbedCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls = append(m.EmbedCalls, text)
	err := m.EmbedErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	vec := make([]float32, mockDimensions)
	var norm float64
	for i := range vec {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		// Map the hash into [-1, 1).
		v := float64(int32(h.Sum32())) / float64(math.MaxInt32)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}
