package emails

import (
	"context"
	"sync"

	"coldemail-backend/internal/llm"
)

type stubClient struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	requests []llm.Request
	ctxErr   error
}

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, req)
	s.ctxErr = ctx.Err()
	if s.err != nil {
		return llm.Completion{}, s.err
	}
	return llm.Completion{Text: s.text}, nil
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sampleRequest() GenerationRequest {
	return GenerationRequest{
		Prospect: ProspectInfo{Name: "Jane", Company: "Acme", Role: "Manager"},
		Product:  ProductInfo{Description: "X", PainPoint: "Y", Solution: "Z"},
		Strategy: Strategy{CTAType: CTADirect},
	}
}
