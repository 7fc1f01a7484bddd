// Package relay orchestrates one request/response cycle against the
// completion API: build the request from history, interpret the dual-channel
// result, persist what may be persisted, and chunk the reply for delivery.
package relay

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/infra/eventbus"
	"github.com/parleybot/parley/internal/infra/llm"
)

// Config bounds reply delivery.
type Config struct {
	// MessageLimit is the hard per-message character limit of the chat
	// platform.
	MessageLimit int
	// SplitMargin is held back from the limit while searching for a split
	// boundary.
	SplitMargin int
}

// DefaultConfig matches the platform limits the relay was built against.
func DefaultConfig() Config {
	return Config{
		MessageLimit: 2000,
		SplitMargin:  10,
	}
}

// Pipeline turns one user message into deliverable chunks plus a history
// decision. Failures come back as a single diagnostic chunk, never as an
// error: the caller always has something to show the user.
type Pipeline struct {
	store    *conversation.Store
	client   llm.CompletionProvider
	registry *models.Registry
	bus      eventbus.EventBus
	cfg      Config

	mu    sync.Mutex
	locks map[conversation.Key]*sync.Mutex
}

// NewPipeline creates a Pipeline without event publication.
func NewPipeline(store *conversation.Store, client llm.CompletionProvider, registry *models.Registry, cfg Config) *Pipeline {
	return NewPipelineWithBus(store, client, registry, nil, cfg)
}

// NewPipelineWithBus creates a Pipeline that additionally publishes an
// Exchange on TopicCompleted after every completed exchange.
func NewPipelineWithBus(store *conversation.Store, client llm.CompletionProvider, registry *models.Registry, bus eventbus.EventBus, cfg Config) *Pipeline {
	return &Pipeline{
		store:    store,
		client:   client,
		registry: registry,
		bus:      bus,
		cfg:      cfg,
		locks:    make(map[conversation.Key]*sync.Mutex),
	}
}

// Complete runs one exchange for key. It returns the chunks to deliver in
// order and whether the exchange entered the history.
//
// The per-key lock is held across the API call: concurrent messages on one
// key serialize, so every request is built from settled history and the two
// appends of an exchange never interleave with another exchange on the same
// key. Other keys proceed independently.
func (p *Pipeline) Complete(ctx context.Context, key conversation.Key, userText string) ([]string, bool) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, false
	}

	lock := p.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	active := p.registry.Active()

	history := p.store.GetOrCreate(key)
	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: string(conversation.RoleUser), Content: userText})

	completion, err := p.client.Complete(ctx, llm.CompletionRequest{
		Model:    active.ID,
		Messages: messages,
	})
	if err != nil {
		// Every provider failure is already user-readable; deliver it as
		// the whole reply and leave history untouched.
		return []string{err.Error()}, false
	}

	reasoning := completion.Reasoning
	if !active.Reasoner {
		reasoning = ""
	}

	var display, historyText string
	switch s := shapeOf(completion.Answer, reasoning).(type) {
	case answerWithReasoning:
		display = s.render()
		historyText = s.answer
	case answerOnly:
		display = s.answer
		historyText = s.answer
	case reasoningOnly:
		// Shown but never persisted: replayed reasoning is what the API
		// rejects with a 400.
		display = s.reasoning
	case emptyResponse:
		return []string{(&llm.IncompleteResponseError{}).Error()}, false
	}

	persisted := historyText != ""
	if persisted {
		p.store.Append(key,
			conversation.Turn{Role: conversation.RoleUser, Content: userText},
			conversation.Turn{Role: conversation.RoleAssistant, Content: historyText},
		)
	}

	p.publish(Exchange{
		Key:       key,
		Model:     active.ID,
		Prompt:    userText,
		Reply:     display,
		Persisted: persisted,
		Usage:     completion.Usage,
		CreatedAt: time.Now().UTC(),
	})

	return Split(display, p.cfg.MessageLimit, p.cfg.SplitMargin), persisted
}

// keyLock returns the mutex for key, creating it on first use.
func (p *Pipeline) keyLock(key conversation.Key) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	return lock
}

func (p *Pipeline) publish(ex Exchange) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(TopicCompleted, ex)
}
