// Package llm defines the vendor-agnostic completion provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Message represents a single turn sent to the completion API (role + content).
// Assistant messages replay the final answer only: reasoning text sent back
// upstream is what the API rejects with a 400.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant" | "system"
	Content string `json:"content"`
}

// CompletionRequest is the input for a non-streaming completion call.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Usage reports token consumption for one completion. Telemetry only, it
// never participates in control flow.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the decoded result of a successful completion call.
// Answer and Reasoning are wire-faithful: either may be empty, and callers
// decide what an empty pair means.
type Completion struct {
	Answer    string
	Reasoning string
	Usage     Usage
}
