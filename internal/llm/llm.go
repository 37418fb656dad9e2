package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts completion providers. One call returns one candidate's text.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Request is a system/user prompt pair for a JSON completion.
type Request struct {
	System string
	User   string
}

// Completion is the text of the first candidate plus provider bookkeeping.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// RemoteServiceError reports a failed provider call: network failure, non-success
// status, provider error body or missing content.
type RemoteServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// ErrNotConfigured is wrapped by the placeholder client.
var ErrNotConfigured = errors.New("completion provider not configured")

// PlaceholderClient fails every call; used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns a RemoteServiceError wrapping ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, &RemoteServiceError{Provider: "none", Message: ErrNotConfigured.Error(), Err: ErrNotConfigured}
}
