package archive

import "time"

// Transcript is one archived relay exchange.
// Persisted mirrors whether the exchange entered the in-memory history;
// reasoning-only replies are archived with Persisted=false.
type Transcript struct {
	ID        string    `json:"id"`
	ConvKey   string    `json:"conv_key"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Persisted bool      `json:"persisted"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelUsage aggregates token accounting per model across all exchanges.
type ModelUsage struct {
	Model            string `json:"model"`
	Exchanges        int64  `json:"exchanges"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}
