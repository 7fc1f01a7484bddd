// Package gateway runs the chat-facing side of the relay: it long-polls
// Telegram for updates, routes slash commands, and forwards everything else
// through the response pipeline.
package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/infra/telegram"
)

// typingInterval refreshes the chat action while a completion is in flight;
// Telegram expires the indicator after about five seconds.
const typingInterval = 4 * time.Second

const defaultPollRetryDelay = 3 * time.Second

// Messenger is the platform surface the gateway needs.
// *telegram.Client satisfies it.
type Messenger interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// Completer is the slice of the relay pipeline the gateway calls.
type Completer interface {
	Complete(ctx context.Context, key conversation.Key, userText string) ([]string, bool)
}

// Config carries the gateway knobs.
type Config struct {
	PollTimeoutSeconds int
	PollRetryDelay     time.Duration
	SplitDelay         time.Duration
	AdminChatID        int64
	MaxHistory         int
}

// Gateway owns the update loop and command handling for one bot.
type Gateway struct {
	messenger Messenger
	pipeline  Completer
	store     *conversation.Store
	registry  *models.Registry
	cfg       Config

	logger *log.Logger
	wg     sync.WaitGroup
}

// New wires a Gateway. Zero PollRetryDelay falls back to 3 seconds.
func New(messenger Messenger, pipeline Completer, store *conversation.Store, registry *models.Registry, cfg Config) *Gateway {
	if cfg.PollRetryDelay <= 0 {
		cfg.PollRetryDelay = defaultPollRetryDelay
	}
	return &Gateway{
		messenger: messenger,
		pipeline:  pipeline,
		store:     store,
		registry:  registry,
		cfg:       cfg,
		logger:    log.New(os.Stderr, "[gateway] ", log.LstdFlags),
	}
}

// Run polls for updates until ctx is cancelled. Poll failures are logged
// and retried after a short backoff; in-flight relays are waited for on exit.
func (g *Gateway) Run(ctx context.Context) {
	g.logger.Printf("polling for updates (timeout %ds)", g.cfg.PollTimeoutSeconds)

	var offset int64
	for ctx.Err() == nil {
		updates, err := g.messenger.GetUpdates(ctx, offset, g.cfg.PollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			g.logger.Printf("poll failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(g.cfg.PollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			g.dispatch(ctx, u)
		}
	}

	g.wg.Wait()
	g.logger.Printf("stopped")
}

// dispatch routes one update: commands run inline, chat messages relay in
// their own goroutine so a slow completion never blocks the poll loop.
func (g *Gateway) dispatch(ctx context.Context, u telegram.Update) {
	msg := u.Message
	if msg == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		if msg.HasAttachments() {
			g.logger.Printf("dropping attachment-only message in chat %d", msg.Chat.ID)
		}
		return
	}

	if strings.HasPrefix(text, "/") {
		g.handleCommand(ctx, msg.Chat.ID, text)
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.relayMessage(ctx, msg.Chat.ID, text)
	}()
}

func (g *Gateway) relayMessage(ctx context.Context, chatID int64, text string) {
	stopTyping := g.startTypingTicker(ctx, chatID)
	chunks, _ := g.pipeline.Complete(ctx, conversationKey(chatID), text)
	stopTyping()

	g.deliver(ctx, chatID, chunks)
}

// deliver sends chunks in order, pausing between parts so the platform
// renders them as separate messages without rate-limiting the bot.
func (g *Gateway) deliver(ctx context.Context, chatID int64, chunks []string) {
	for i, chunk := range chunks {
		if i > 0 && g.cfg.SplitDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(g.cfg.SplitDelay):
			}
		}
		if err := g.messenger.SendMessage(ctx, chatID, chunk); err != nil {
			g.logger.Printf("send failed in chat %d: %v", chatID, err)
		}
	}
}

// startTypingTicker shows the typing indicator immediately and keeps it
// alive until the returned stop function is called.
func (g *Gateway) startTypingTicker(ctx context.Context, chatID int64) func() {
	ticker := time.NewTicker(typingInterval)
	done := make(chan struct{})

	go func() {
		// The indicator is cosmetic; send errors are ignored.
		_ = g.messenger.SendChatAction(ctx, chatID, "typing")
		for {
			select {
			case <-ticker.C:
				_ = g.messenger.SendChatAction(ctx, chatID, "typing")
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		close(done)
		ticker.Stop()
	}
}

func (g *Gateway) reply(ctx context.Context, chatID int64, text string) {
	if err := g.messenger.SendMessage(ctx, chatID, text); err != nil {
		g.logger.Printf("reply failed in chat %d: %v", chatID, err)
	}
}

// conversationKey namespaces chat ids so HTTP-created conversations can
// never collide with Telegram ones.
func conversationKey(chatID int64) conversation.Key {
	return conversation.Key(fmt.Sprintf("telegram:%d", chatID))
}
