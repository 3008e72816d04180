package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

// ChatService answers CEO questions over recalled facts. After a reply the
// exchange is handed to the curator, which decides asynchronously whether it
// contains anything worth remembering.
type ChatService struct {
	facts   *FactService
	llm     domain.CompletionClient
	curator *CuratorService
	logger  *zap.Logger
}

func NewChatService(facts *FactService, llm domain.CompletionClient, curator *CuratorService, logger *zap.Logger) *ChatService {
	return &ChatService{
		facts:   facts,
		llm:     llm,
		curator: curator,
		logger:  logger,
	}
}

// Reply produces a grounded answer to the message.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	messages, err := s.buildMessages(ctx, message)
	if err != nil {
		return "", err
	}

	completion, err := s.llm.Complete(ctx, messages, 0.7)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	s.curator.Enqueue(Exchange{UserMessage: message, AssistantReply: completion.Content})
	return completion.Content, nil
}

// Stream produces the answer as a chunk stream. The exchange is curated once
// the stream completes; an errored stream is not curated.
func (s *ChatService) Stream(ctx context.Context, message string) (<-chan domain.StreamChunk, error) {
	messages, err := s.buildMessages(ctx, message)
	if err != nil {
		return nil, err
	}

	upstream, err := s.llm.Stream(ctx, messages, 0.7)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}

	out := make(chan domain.StreamChunk)
	go func() {
		defer close(out)
		var reply string
		failed := false
		for chunk := range upstream {
			if chunk.Type == domain.ChunkContent {
				reply += chunk.Content
			}
			if chunk.Type == domain.ChunkError {
				failed = true
			}
			out <- chunk
		}
		if !failed && reply != "" {
			s.curator.Enqueue(Exchange{UserMessage: message, AssistantReply: reply})
		}
	}()
	return out, nil
}

func (s *ChatService) buildMessages(ctx context.Context, message string) ([]domain.Message, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	recalled, err := s.facts.Search(ctx, message, domain.SearchOpts{TopK: recallTopK})
	if err != nil {
		s.logger.Warn("chat recall failed, answering without facts", zap.Error(err))
		recalled = nil
	}

	system := fmt.Sprintf("%s\n\nRecalled facts:\n%s", chatSystemPrompt, factDigest(recalled))
	return []domain.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	}, nil
}
