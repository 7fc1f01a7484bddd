// DeepSeek HTTP adapter.
// DeepSeekClient speaks the OpenAI-compatible chat completions protocol:
//   - POST <endpoint> with a bearer key and {"model","messages"} body
//   - 200 carries choices[0].message.content and, for reasoner models,
//     choices[0].message.reasoning_content, plus a usage block
//   - non-200 carries {"error":{"message":...}}
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	mimeJSON            = "application/json"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
)

// DeepSeekClient implements CompletionProvider against a DeepSeek-style API.
type DeepSeekClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewDeepSeekClient creates a client for the given endpoint. timeout bounds
// the whole round trip, body read included.
func NewDeepSeekClient(url, apiKey string, timeout time.Duration) *DeepSeekClient {
	return &DeepSeekClient{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── wire types (decode side) ────────────────────────────────────────────────
// Requests marshal CompletionRequest directly; its Message type has no
// reasoning field, so reasoning text cannot be serialized back upstream.

type wireChoiceMessage struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

type wireChoice struct {
	Message wireChoiceMessage `json:"message"`
}

type wireAPIError struct {
	Message string `json:"message"`
}

type wireResponse struct {
	Choices []wireChoice  `json:"choices"`
	Usage   Usage         `json:"usage"`
	Error   *wireAPIError `json:"error"`
}

// ─── CompletionProvider implementation ───────────────────────────────────────

// Complete performs one completion round trip. Every failure mode maps to a
// typed error from errors.go; nothing else escapes.
func (c *DeepSeekClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	// The body is decoded before the status check: a non-JSON body is a
	// decode failure no matter what the status line said.
	var payload wireResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &DecodeError{Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upErr := &UpstreamError{Status: resp.StatusCode}
		if payload.Error != nil {
			upErr.Message = payload.Error.Message
		}
		return nil, upErr
	}

	if len(payload.Choices) == 0 {
		return nil, &IncompleteResponseError{}
	}

	msg := payload.Choices[0].Message
	return &Completion{
		Answer:    msg.Content,
		Reasoning: msg.ReasoningContent,
		Usage:     payload.Usage,
	}, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// classifyTransportError maps client.Do and body-read failures onto the
// error taxonomy. Timeouts win over generic network failures.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &NetworkError{Err: err}
	}
	return &UnexpectedError{Err: err}
}
