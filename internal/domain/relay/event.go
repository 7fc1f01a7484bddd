package relay

import (
	"time"

	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/infra/llm"
)

// TopicCompleted carries one Exchange per completed exchange.
const TopicCompleted = "relay.completed"

// Exchange is the archive-facing record of one exchange: what the user
// asked, what was delivered, and whether it entered the history.
type Exchange struct {
	Key       conversation.Key
	Model     string
	Prompt    string
	Reply     string
	Persisted bool
	Usage     llm.Usage
	CreatedAt time.Time
}
