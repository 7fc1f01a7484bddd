// Typed errors for everything a completion call can fail with. Error()
// strings double as the user-facing diagnostics relayed into the chat, so
// wording stays stable and free of internals.
package llm

import (
	"fmt"
	"net/http"
)

// DecodeError means the response body was not valid JSON.
type DecodeError struct {
	Status int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not parse API response (status %d)", e.Status)
}

// UpstreamError is a non-success status from the completion API. Message is
// taken from the structured error payload when present.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("unknown error (status %d)", e.Status)
	}
	s := fmt.Sprintf("API call failed (status %d): %s", e.Status, msg)
	if e.Status == http.StatusBadRequest {
		// The API rejects requests that echo reasoning text back into the
		// message history; that is the usual way to earn a 400 here.
		s += "\n(hint: 400 usually means malformed input, such as reasoning content leaked into the history)"
	}
	return s
}

// IncompleteResponseError means the API answered 2xx but the payload carried
// no usable choices.
type IncompleteResponseError struct{}

func (e *IncompleteResponseError) Error() string {
	return "API response is missing expected content"
}

// NetworkError wraps a connection-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not connect to the API: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means the request deadline elapsed before a response arrived.
type TimeoutError struct{}

func (e *TimeoutError) Error() string {
	return "API request timed out"
}

// UnexpectedError is the catch-all wrapper so no raw error ever reaches chat
// output unclassified.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected API error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
