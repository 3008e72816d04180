package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/jsonx"
	"go.uber.org/zap"
)

// curatorQueueSize bounds the pending-exchange queue. Enqueue drops when the
// queue is full; losing a candidate memory is cheaper than unbounded growth.
const curatorQueueSize = 64

// Exchange is one chat round handed to the curator.
type Exchange struct {
	UserMessage    string
	AssistantReply string
}

// CuratorService reviews chat exchanges in the background and stores the
// ones the model judges worth remembering. One consumer goroutine drains a
// bounded queue; producers never block.
type CuratorService struct {
	facts  *FactService
	llm    domain.CompletionClient
	logger *zap.Logger

	queue  chan Exchange
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewCuratorService(facts *FactService, llm domain.CompletionClient, logger *zap.Logger) *CuratorService {
	return &CuratorService{
		facts:  facts,
		llm:    llm,
		logger: logger,
		queue:  make(chan Exchange, curatorQueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (s *CuratorService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("curator started")
		for {
			select {
			case ex := <-s.queue:
				s.review(ex)
			case <-s.stopCh:
				s.logger.Info("curator stopped")
				return
			}
		}
	}()
}

// Stop signals the consumer and waits for it to exit. Queued exchanges not
// yet reviewed are discarded.
func (s *CuratorService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Enqueue offers an exchange for review. Drops (with a log line) when the
// queue is full.
func (s *CuratorService) Enqueue(ex Exchange) {
	select {
	case s.queue <- ex:
	default:
		s.logger.Info("curator queue full, dropping exchange")
	}
}

// review asks the model whether the exchange carries durable business
// information and stores it as a fact when it does. Runs detached from any
// request; uses a background context.
func (s *CuratorService) review(ex Exchange) {
	ctx := context.Background()

	completion, err := s.llm.Complete(ctx, []domain.Message{
		{Role: "system", Content: rememberSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("CEO: %s\nAssistant: %s", ex.UserMessage, ex.AssistantReply)},
	}, 0)
	if err != nil {
		s.logger.Warn("curator judgment failed", zap.Error(err))
		return
	}

	var verdict struct {
		Remember bool   `json:"remember"`
		Content  string `json:"content"`
		Type     string `json:"type"`
	}
	if err := jsonx.Decode(completion.Content, &verdict); err != nil {
		s.logger.Warn("curator verdict undecodable", zap.Error(err))
		return
	}
	if !verdict.Remember || verdict.Content == "" {
		return
	}

	factType := domain.FactType(verdict.Type)
	if !domain.ValidFactType(verdict.Type) {
		factType = domain.FactTypeChatNote
	}

	f, err := s.facts.Add(ctx, factType, verdict.Content, "chat", nil)
	if err != nil {
		s.logger.Warn("curator failed to store fact", zap.Error(err))
		return
	}
	s.logger.Info("curator stored fact from chat",
		zap.String("fact_id", f.ID.String()),
		zap.String("type", string(factType)))
}
