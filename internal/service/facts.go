package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent    = errors.New("fact content cannot be empty")
	ErrInvalidFactType = errors.New("invalid fact type")
)

// FactService wraps the fact store with embedding generation and validation.
type FactService struct {
	store           domain.FactStore
	embeddingClient domain.EmbeddingClient
	logger          *zap.Logger
}

func NewFactService(store domain.FactStore, embeddingClient domain.EmbeddingClient, logger *zap.Logger) *FactService {
	return &FactService{
		store:           store,
		embeddingClient: embeddingClient,
		logger:          logger,
	}
}

// Add embeds and stores a new fact. A failed embedding does not block the
// write; the fact is stored without a vector and excluded from semantic
// search until re-embedded.
func (s *FactService) Add(ctx context.Context, factType domain.FactType, content, source string, metadata map[string]any) (*domain.Fact, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if !domain.ValidFactType(string(factType)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFactType, factType)
	}

	embedding, err := s.embeddingClient.Embed(ctx, content)
	if err != nil {
		s.logger.Warn("embedding failed, storing fact without vector",
			zap.String("type", string(factType)),
			zap.Error(err))
		embedding = nil
	}

	f := &domain.Fact{
		Type:      factType,
		Content:   content,
		Source:    source,
		Enabled:   true,
		Embedding: embedding,
		Metadata:  metadata,
	}
	if err := s.store.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create fact: %w", err)
	}
	return f, nil
}

// Search embeds the query and returns the most relevant facts, best first.
// Disabled facts are excluded unless opts.IncludeDisabled is set.
func (s *FactService) Search(ctx context.Context, query string, opts domain.SearchOpts) ([]domain.FactWithScore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyContent
	}

	embedding, err := s.embeddingClient.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.store.Search(ctx, embedding, opts)
}

func (s *FactService) GetAll(ctx context.Context, filter domain.ListFilter) ([]domain.Fact, error) {
	return s.store.List(ctx, filter)
}

func (s *FactService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Fact, error) {
	return s.store.GetByIDs(ctx, ids)
}

func (s *FactService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	return s.store.SetEnabled(ctx, id, enabled)
}

func (s *FactService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
