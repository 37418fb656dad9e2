package emails

import (
	"context"
	"errors"
	"time"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/telemetry"
)

const (
	EndpointGenerate   = "generate"
	EndpointRegenerate = "regenerate"
	EndpointLegacy     = "generate_legacy"
	EndpointAnalyze    = "analyze"

	maxLoggedRaw = 2000
)

// Service builds prompts, performs one completion call and normalizes the result.
type Service struct {
	LLM      llm.Client
	Provider string
}

// NewService constructs a Service around an injected completion client.
func NewService(client llm.Client, provider string) *Service {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Service{LLM: client, Provider: provider}
}

// Generate returns both variants, or only variant2 when req carries prior improvements.
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (EmailDraftSet, error) {
	if err := req.Validate(); err != nil {
		return EmailDraftSet{}, err
	}
	prompt, err := BuildGenerationPrompt(req)
	if err != nil {
		return EmailDraftSet{}, err
	}

	endpoint := EndpointGenerate
	if req.IsRegenerate() {
		endpoint = EndpointRegenerate
	}
	text, err := s.complete(ctx, endpoint, prompt)
	if err != nil {
		return EmailDraftSet{}, err
	}

	drafts, err := NormalizeDrafts(text, req.IsRegenerate())
	if err != nil {
		s.recordMalformed(ctx, endpoint, err)
		return EmailDraftSet{}, err
	}
	metrics.IncCompletion(endpoint, metrics.OutcomeSuccess)
	return drafts, nil
}

// GenerateFromPrompt serves the deprecated client-assembled prompt flow.
func (s *Service) GenerateFromPrompt(ctx context.Context, prompt string) (EmailDraftSet, error) {
	v := &ValidationError{}
	required(v, "prompt", prompt)
	if err := v.orNil(); err != nil {
		return EmailDraftSet{}, err
	}

	text, err := s.complete(ctx, EndpointLegacy, BuildLegacyPrompt(prompt))
	if err != nil {
		return EmailDraftSet{}, err
	}
	drafts, err := NormalizeDrafts(text, false)
	if err != nil {
		s.recordMalformed(ctx, EndpointLegacy, err)
		return EmailDraftSet{}, err
	}
	metrics.IncCompletion(EndpointLegacy, metrics.OutcomeSuccess)
	return drafts, nil
}

// Analyze scores a single email.
func (s *Service) Analyze(ctx context.Context, emailContent string) (EmailMetrics, error) {
	v := &ValidationError{}
	required(v, "emailContent", emailContent)
	if err := v.orNil(); err != nil {
		return EmailMetrics{}, err
	}
	prompt, err := BuildAnalysisPrompt(emailContent)
	if err != nil {
		return EmailMetrics{}, err
	}

	text, err := s.complete(ctx, EndpointAnalyze, prompt)
	if err != nil {
		return EmailMetrics{}, err
	}
	result, err := NormalizeMetrics(text)
	if err != nil {
		s.recordMalformed(ctx, EndpointAnalyze, err)
		return EmailMetrics{}, err
	}
	metrics.IncCompletion(EndpointAnalyze, metrics.OutcomeSuccess)
	return result, nil
}

// complete is the single suspension point per request. The caller's cancellation is
// detached so a disconnecting client does not abort the provider call.
func (s *Service) complete(ctx context.Context, endpoint string, prompt llm.Request) (string, error) {
	callCtx := context.WithoutCancel(ctx)
	start := time.Now()
	out, err := s.LLM.Complete(callCtx, prompt)
	metrics.ObserveCompletionLatency(endpoint, s.Provider, time.Since(start))
	if err != nil {
		metrics.IncCompletion(endpoint, metrics.OutcomeRemote)
		telemetry.Error("completion.failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"endpoint":   endpoint,
			"provider":   s.Provider,
			"error":      err,
		})
		var remote *llm.RemoteServiceError
		if !errors.As(err, &remote) {
			err = &llm.RemoteServiceError{Provider: s.Provider, Message: err.Error(), Err: err}
		}
		return "", err
	}
	return out.Text, nil
}

func (s *Service) recordMalformed(ctx context.Context, endpoint string, err error) {
	metrics.IncCompletion(endpoint, metrics.OutcomeMalformed)
	fields := map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"endpoint":   endpoint,
		"provider":   s.Provider,
		"error":      err,
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		raw := malformed.Raw
		if len(raw) > maxLoggedRaw {
			raw = raw[:maxLoggedRaw]
		}
		fields["raw"] = raw
		fields["raw_len"] = len(malformed.Raw)
	}
	telemetry.Error("completion.malformed", fields)
}
