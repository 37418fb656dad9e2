package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/telemetry"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Options configures the Chat Completions client.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:      opts.APIKey,
		model:       opts.Model,
		endpoint:    baseURL + "/chat/completions",
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string         `json:"model"`
	Messages            []chatMessage  `json:"messages"`
	Temperature         *float32       `json:"temperature,omitempty"`
	MaxTokens           int            `json:"max_tokens,omitempty"`
	MaxCompletionTokens int            `json:"max_completion_tokens,omitempty"`
	ResponseFormat      responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt pair in JSON mode and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, in llm.Request) (llm.Completion, error) {
	messages := BuildMessages(in)
	reqBody := chatRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	if isGPT5(c.model) {
		// gpt-5 models only accept the default temperature and reject max_tokens.
		reqBody.MaxCompletionTokens = c.maxTokens
	} else {
		temp := c.temperature
		reqBody.Temperature = &temp
		reqBody.MaxTokens = c.maxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Completion{}, remoteErr(0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, remoteErr(0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, remoteErr(0, "openai request timeout", err)
		}
		return llm.Completion{}, remoteErr(0, "openai request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, remoteErr(resp.StatusCode, "read response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return llm.Completion{}, remoteErr(resp.StatusCode, strings.TrimSpace(string(body)), nil)
		}
		return llm.Completion{}, remoteErr(resp.StatusCode, "openai response parse", err)
	}
	if parsed.Error != nil {
		return llm.Completion{}, remoteErr(resp.StatusCode, fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type), nil)
	}
	if resp.StatusCode >= 400 {
		return llm.Completion{}, remoteErr(resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, remoteErr(resp.StatusCode, "openai response missing choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Completion{}, remoteErr(resp.StatusCode, "openai response empty content", nil)
	}

	out := llm.Completion{Text: content, Model: parsed.Model}
	if out.Model == "" {
		out.Model = c.model
	}
	if parsed.Usage != nil {
		out.PromptTokens = parsed.Usage.PromptTokens
		out.CompletionTokens = parsed.Usage.CompletionTokens
	}
	logUsage(out, hashPromptString(promptStringFromMessages(messages)), time.Since(start))
	return out, nil
}

func remoteErr(status int, msg string, err error) *llm.RemoteServiceError {
	return &llm.RemoteServiceError{Provider: providerName, StatusCode: status, Message: msg, Err: err}
}

func logUsage(c llm.Completion, promptHash string, latency time.Duration) {
	metrics.AddTokens(providerName, c.PromptTokens, c.CompletionTokens)
	telemetry.Info("llm.response", map[string]any{
		"provider":          providerName,
		"model":             c.Model,
		"prompt_hash":       promptHash,
		"prompt_tokens":     c.PromptTokens,
		"completion_tokens": c.CompletionTokens,
		"latency_ms":        float64(latency.Microseconds()) / 1000.0,
	})
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
