// Package llm: CompletionProvider interface.
// Adapters (DeepSeek today, others later) implement this interface so the
// relay is never coupled to a specific completion vendor.
package llm

import "context"

// CompletionProvider is the vendor-agnostic interface for chat completions.
// Streaming is excluded on purpose: the relay delivers whole replies, split
// for the chat platform after the fact.
type CompletionProvider interface {
	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
