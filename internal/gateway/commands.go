package gateway

import (
	"context"
	"fmt"
	"strings"
)

// handleCommand routes a slash command. Unknown commands are ignored so the
// bot stays quiet in group chats where other bots share the command space.
func (g *Gateway) handleCommand(ctx context.Context, chatID int64, text string) {
	fields := strings.Fields(text)
	cmd := fields[0]
	// group chats address commands as /cmd@botname
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	switch cmd {
	case "/start":
		g.reply(ctx, chatID, g.welcomeText())
	case "/help":
		g.reply(ctx, chatID, g.helpText())
	case "/clear":
		if g.store.Clear(conversationKey(chatID)) {
			g.reply(ctx, chatID, "Conversation history cleared.")
		} else {
			g.reply(ctx, chatID, "No conversation history to clear.")
		}
	case "/close":
		g.store.Remove(conversationKey(chatID))
		g.reply(ctx, chatID, "Conversation closed.")
	case "/models":
		g.reply(ctx, chatID, g.modelListing())
	case "/setmodel":
		g.handleSetModel(ctx, chatID, args)
	}
}

func (g *Gateway) handleSetModel(ctx context.Context, chatID int64, args []string) {
	if g.cfg.AdminChatID != 0 && chatID != g.cfg.AdminChatID {
		g.reply(ctx, chatID, "Only the admin chat may switch models.")
		return
	}
	if len(args) == 0 {
		g.reply(ctx, chatID, "Usage: /setmodel <id>\n\n"+g.modelListing())
		return
	}

	id := args[0]
	if err := g.registry.SetActive(id); err != nil {
		g.reply(ctx, chatID, fmt.Sprintf("Unknown model %q.\n\n%s", id, g.modelListing()))
		return
	}
	g.reply(ctx, chatID, fmt.Sprintf("Active model switched to %s.", id))
}

func (g *Gateway) welcomeText() string {
	return fmt.Sprintf(
		"Hi! I relay this chat to the %s model.\n\nSend me a message and I will answer. Use /help for commands.",
		g.registry.Active().ID,
	)
}

func (g *Gateway) helpText() string {
	return fmt.Sprintf(`Commands:
/start - introduction
/help - this message
/clear - clear the conversation history
/close - close the conversation
/models - list available models
/setmodel <id> - switch the active model

Active model: %s
History window: %d exchanges`,
		g.registry.Active().ID, g.cfg.MaxHistory/2)
}

// modelListing renders the catalog with the active model starred.
func (g *Gateway) modelListing() string {
	var b strings.Builder
	b.WriteString("Available models:\n")
	active := g.registry.Active()
	for _, m := range g.registry.List() {
		marker := "  "
		if m.ID == active.ID {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%s - %s\n", marker, m.ID, m.Description)
	}
	b.WriteString("\nSwitch with /setmodel <id>")
	return b.String()
}
