package service

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/store"
	"github.com/google/uuid"
)

// mockFactStore implements domain.FactStore for testing. Search returns
// facts in insertion order with synthetic descending scores.
type mockFactStore struct {
	mu    sync.Mutex
	facts map[uuid.UUID]*domain.Fact
	order []uuid.UUID

	createErr error
	searchErr error
}

func newMockFactStore() *mockFactStore {
	return &mockFactStore{facts: make(map[uuid.UUID]*domain.Fact)}
}

func (m *mockFactStore) Create(ctx context.Context, f *domain.Fact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	f.ID = uuid.New()
	cp := *f
	m.facts[f.ID] = &cp
	m.order = append(m.order, f.ID)
	return nil
}

func (m *mockFactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *mockFactStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fact
	for _, id := range ids {
		if f, ok := m.facts[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFactStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fact
	for _, id := range m.order {
		f := m.facts[id]
		if filter.Type != nil && f.Type != *filter.Type {
			continue
		}
		if filter.EnabledOnly && !f.Enabled {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

func (m *mockFactStore) Search(ctx context.Context, embedding []float32, opts domain.SearchOpts) ([]domain.FactWithScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	var out []domain.FactWithScore
	score := float32(0.99)
	for _, id := range m.order {
		f := m.facts[id]
		if !opts.IncludeDisabled && !f.Enabled {
			continue
		}
		if opts.Type != nil && f.Type != *opts.Type {
			continue
		}
		out = append(out, domain.FactWithScore{Fact: *f, Score: score})
		score -= 0.01
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

func (m *mockFactStore) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[id]
	if !ok {
		return store.ErrNotFound
	}
	f.Enabled = enabled
	return nil
}

func (m *mockFactStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.facts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.facts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
