package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/telemetry"
)

// Options configures a langchaingo-backed client.
type Options struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client adapts any llms.Model to llm.Client.
type Client struct {
	model llms.Model
	opts  Options
}

// New wraps an existing langchaingo model.
func New(model llms.Model, opts Options) *Client {
	if opts.Provider == "" {
		opts.Provider = "langchain"
	}
	return &Client{model: model, opts: opts}
}

// NewOllama builds a client talking to a local Ollama server in JSON format.
func NewOllama(serverURL string, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for ollama")
	}
	ollamaOpts := []ollama.Option{
		ollama.WithModel(opts.Model),
		ollama.WithFormat("json"),
	}
	if strings.TrimSpace(serverURL) != "" {
		ollamaOpts = append(ollamaOpts, ollama.WithServerURL(serverURL))
	}
	model, err := ollama.New(ollamaOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama model: %w", err)
	}
	opts.Provider = "ollama"
	return New(model, opts), nil
}

// Complete sends the system and human messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	messages := make([]llms.MessageContent, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, req.User))

	callOpts := []llms.CallOption{llms.WithJSONMode()}
	if c.opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(c.opts.Temperature))
	}
	if c.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		msg := "completion request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "completion request timeout"
		}
		return llm.Completion{}, &llm.RemoteServiceError{Provider: c.opts.Provider, Message: msg, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return llm.Completion{}, &llm.RemoteServiceError{Provider: c.opts.Provider, Message: "response missing choices"}
	}

	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Content)
	if text == "" {
		return llm.Completion{}, &llm.RemoteServiceError{Provider: c.opts.Provider, Message: "response empty content"}
	}

	out := llm.Completion{
		Text:             text,
		Model:            c.opts.Model,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
	}
	metrics.AddTokens(c.opts.Provider, out.PromptTokens, out.CompletionTokens)
	telemetry.Info("llm.response", map[string]any{
		"provider":          c.opts.Provider,
		"model":             out.Model,
		"prompt_tokens":     out.PromptTokens,
		"completion_tokens": out.CompletionTokens,
		"latency_ms":        float64(time.Since(start).Microseconds()) / 1000.0,
	})
	return out, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var _ llm.Client = (*Client)(nil)
