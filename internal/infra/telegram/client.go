// Package telegram implements a minimal Telegram Bot API client: long-poll
// updates, send messages, send chat actions. Only the surface the gateway
// needs, nothing more.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// sendMessageLimit is the Bot API hard cap on message length in characters.
// The relay splitter keeps chunks well under this; truncation here is a
// final guard against oversized diagnostics.
const sendMessageLimit = 4096

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// ─────────────────────────────────────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────────────────────────────────────

// Update is one long-poll result entry.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message. Attachment fields are decoded only
// far enough to detect their presence.
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Date      int64       `json:"date"`
	Text      string      `json:"text,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Sticker   *Sticker    `json:"sticker,omitempty"`
	Voice     *Voice      `json:"voice,omitempty"`
}

// HasAttachments reports whether the message carries any media payload.
func (m *Message) HasAttachments() bool {
	return len(m.Photo) > 0 || m.Document != nil || m.Sticker != nil || m.Voice != nil
}

// Chat identifies a conversation.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// User identifies a message sender.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username,omitempty"`
}

// PhotoSize is one resolution of an attached photo.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Document is an attached file.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

// Sticker is an attached sticker.
type Sticker struct {
	FileID string `json:"file_id"`
}

// Voice is an attached voice note.
type Voice struct {
	FileID string `json:"file_id"`
}

// apiResponse is the generic Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Client talks to the Bot API over HTTP.
type Client struct {
	apiBase    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Bot API client. apiBase is the server root
// (e.g. "https://api.telegram.org"); the bot token is appended per method
// call. The timeout must exceed the long-poll window passed to GetUpdates
// or polls will be cut short.
func NewClient(apiBase, token string, timeout time.Duration) *Client {
	return &Client{
		apiBase: apiBase,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) endpoint(method string) string {
	return c.apiBase + "/bot" + c.token + "/" + method
}

// GetUpdates long-polls for new updates. offset acknowledges everything
// below it; timeoutSeconds is the server-side hold time (0 = immediate).
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSeconds))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: build getUpdates request: %w", err)
	}

	payload, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: getUpdates: %w", err)
	}

	var updates []Update
	if err := json.Unmarshal(payload.Result, &updates); err != nil {
		return nil, fmt.Errorf("telegram: parse getUpdates result: %w", err)
	}
	return updates, nil
}

// SendMessage sends plain text to the given chat, truncated to the Bot API
// limit if necessary.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}{
		ChatID: chatID,
		Text:   truncate(text, sendMessageLimit),
	}
	if err := c.post(ctx, "sendMessage", body); err != nil {
		return fmt.Errorf("telegram: sendMessage: %w", err)
	}
	return nil
}

// SendChatAction shows an activity indicator ("typing", ...) in the chat.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	body := struct {
		ChatID int64  `json:"chat_id"`
		Action string `json:"action"`
	}{
		ChatID: chatID,
		Action: action,
	}
	if err := c.post(ctx, "sendChatAction", body); err != nil {
		return fmt.Errorf("telegram: sendChatAction: %w", err)
	}
	return nil
}

// post marshals body and POSTs it to the named method, checking the envelope.
func (c *Client) post(ctx context.Context, method string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	if _, err := c.do(req); err != nil {
		return err
	}
	return nil
}

// do executes the request and unwraps the Bot API envelope. A response with
// ok=false is an error even when HTTP status is 200.
func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	if !payload.OK {
		desc := payload.Description
		if desc == "" {
			desc = "unknown error"
		}
		return nil, fmt.Errorf("API error %d: %s", payload.ErrorCode, desc)
	}
	return &payload, nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
