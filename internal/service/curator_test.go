package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/llm"
	"go.uber.org/zap"
)

func TestCuratorStoresRememberedFact(t *testing.T) {
	fs := newMockFactStore()
	m := llm.NewMockClient()
	m.CompleteResponse = `{"remember": true, "content": "the CEO prefers weekly reports on Mondays", "type": "chat_note"}`

	c := NewCuratorService(newTestFactService(fs), m, zap.NewNop())
	c.Start()
	defer c.Stop()

	c.Enqueue(Exchange{UserMessage: "send my reports on Mondays from now on", AssistantReply: "Understood."})

	deadline := time.After(2 * time.Second)
	for {
		facts, _ := fs.List(context.Background(), domain.ListFilter{})
		if len(facts) == 1 {
			if facts[0].Type != domain.FactTypeChatNote || facts[0].Source != "chat" {
				t.Errorf("stored fact = %+v", facts[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("curator never stored the fact")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCuratorSkipsChitChat(t *testing.T) {
	fs := newMockFactStore()
	m := llm.NewMockClient()
	m.CompleteResponse = `{"remember": false, "content": "", "type": ""}`

	c := NewCuratorService(newTestFactService(fs), m, zap.NewNop())
	c.Start()

	c.Enqueue(Exchange{UserMessage: "good morning", AssistantReply: "Good morning!"})
	c.Stop()

	if facts, _ := fs.List(context.Background(), domain.ListFilter{}); len(facts) != 0 {
		t.Errorf("chit-chat stored as fact: %+v", facts)
	}
}

func TestCuratorInvalidTypeFallsBackToChatNote(t *testing.T) {
	fs := newMockFactStore()
	m := llm.NewMockClient()
	m.CompleteResponse = `{"remember": true, "content": "competitor X raised a round", "type": "gossip"}`

	c := NewCuratorService(newTestFactService(fs), m, zap.NewNop())
	c.Start()
	defer c.Stop()

	c.Enqueue(Exchange{UserMessage: "heard competitor X raised", AssistantReply: "Noted."})

	deadline := time.After(2 * time.Second)
	for {
		facts, _ := fs.List(context.Background(), domain.ListFilter{})
		if len(facts) == 1 {
			if facts[0].Type != domain.FactTypeChatNote {
				t.Errorf("type = %q, want chat_note fallback", facts[0].Type)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("curator never stored the fact")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCuratorEnqueueNeverBlocks(t *testing.T) {
	fs := newMockFactStore()
	m := llm.NewMockClient()
	m.CompleteResponse = `{"remember": false}`

	// Not started: the queue fills and further enqueues must drop, not block.
	c := NewCuratorService(newTestFactService(fs), m, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < curatorQueueSize*2; i++ {
			c.Enqueue(Exchange{UserMessage: "msg", AssistantReply: "reply"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
