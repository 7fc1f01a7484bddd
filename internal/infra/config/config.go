// Package config provides application-wide configuration loaded from env vars.
// All fields except the API key have safe defaults so the binary runs locally
// with minimal env setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the parley relay.
type Config struct {
	// Completion API
	APIKey                string // DEEPSEEK_API_KEY (required)
	APIURL                string // DEEPSEEK_API_URL (default: "https://api.deepseek.com/chat/completions")
	Model                 string // DEEPSEEK_MODEL (default: "deepseek-chat")
	RequestTimeoutSeconds int    // REQUEST_TIMEOUT_SECONDS (default: 300)

	// Conversation
	MaxHistory   int // MAX_HISTORY (default: 10, must be even and positive)
	MessageLimit int // MESSAGE_LIMIT (default: 2000)
	SplitMargin  int // SPLIT_MARGIN (default: 10)
	SplitDelayMS int // SPLIT_MESSAGE_DELAY_MS (default: 300)

	// Chat gateway
	BotToken           string // TELEGRAM_BOT_TOKEN (empty disables the gateway)
	TelegramAPIBase    string // TELEGRAM_API_BASE (default: "https://api.telegram.org")
	AdminChatID        int64  // ADMIN_CHAT_ID (0 lets any chat switch models)
	PollTimeoutSeconds int    // POLL_TIMEOUT_SECONDS (default: 30)

	// Ops surface
	HTTPAddr   string // HTTP_ADDR (default: "0.0.0.0:8080")
	DBPath     string // DB_PATH (default: "parley.db")
	ModelsFile string // MODELS_FILE (empty uses the built-in catalog)
}

const (
	envKeyAPIKey             = "DEEPSEEK_API_KEY"
	envKeyAPIURL             = "DEEPSEEK_API_URL"
	envKeyModel              = "DEEPSEEK_MODEL"
	envKeyRequestTimeoutSecs = "REQUEST_TIMEOUT_SECONDS"
	envKeyMaxHistory         = "MAX_HISTORY"
	envKeyMessageLimit       = "MESSAGE_LIMIT"
	envKeySplitMargin        = "SPLIT_MARGIN"
	envKeySplitDelayMS       = "SPLIT_MESSAGE_DELAY_MS"
	envKeyBotToken           = "TELEGRAM_BOT_TOKEN"
	envKeyTelegramAPIBase    = "TELEGRAM_API_BASE"
	envKeyAdminChatID        = "ADMIN_CHAT_ID"
	envKeyPollTimeoutSecs    = "POLL_TIMEOUT_SECONDS"
	envKeyHTTPAddr           = "HTTP_ADDR"
	envKeyDBPath             = "DB_PATH"
	envKeyModelsFile         = "MODELS_FILE"
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		APIKey:                os.Getenv(envKeyAPIKey),
		APIURL:                envOr(envKeyAPIURL, "https://api.deepseek.com/chat/completions"),
		Model:                 envOr(envKeyModel, "deepseek-chat"),
		RequestTimeoutSeconds: envInt(envKeyRequestTimeoutSecs, 300),
		MaxHistory:            envInt(envKeyMaxHistory, 10),
		MessageLimit:          envInt(envKeyMessageLimit, 2000),
		SplitMargin:           envInt(envKeySplitMargin, 10),
		SplitDelayMS:          envInt(envKeySplitDelayMS, 300),
		BotToken:              os.Getenv(envKeyBotToken),
		TelegramAPIBase:       envOr(envKeyTelegramAPIBase, "https://api.telegram.org"),
		AdminChatID:           envInt64(envKeyAdminChatID, 0),
		PollTimeoutSeconds:    envInt(envKeyPollTimeoutSecs, 30),
		HTTPAddr:              envOr(envKeyHTTPAddr, "0.0.0.0:8080"),
		DBPath:                envOr(envKeyDBPath, "parley.db"),
		ModelsFile:            os.Getenv(envKeyModelsFile),
	}
}

// Validate rejects configurations the relay cannot run with.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s is required", envKeyAPIKey)
	}
	if c.MaxHistory <= 0 || c.MaxHistory%2 != 0 {
		return fmt.Errorf("%s must be a positive even number, got %d", envKeyMaxHistory, c.MaxHistory)
	}
	if c.MessageLimit <= c.SplitMargin {
		return fmt.Errorf("%s (%d) must be greater than %s (%d)",
			envKeyMessageLimit, c.MessageLimit, envKeySplitMargin, c.SplitMargin)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("%s must be positive, got %d", envKeyRequestTimeoutSecs, c.RequestTimeoutSeconds)
	}
	if c.PollTimeoutSeconds <= 0 {
		return fmt.Errorf("%s must be positive, got %d", envKeyPollTimeoutSecs, c.PollTimeoutSeconds)
	}
	return nil
}

// RequestTimeout is the completion API call deadline.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SplitDelay is the pause between consecutive chunks of one reply.
func (c Config) SplitDelay() time.Duration {
	return time.Duration(c.SplitDelayMS) * time.Millisecond
}

// PollTimeout is the long-poll window for the chat gateway.
func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt parses the environment variable key as an int, or returns fallback
// when unset or not numeric.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envInt64 parses the environment variable key as an int64, or returns
// fallback when unset or not numeric.
func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
