package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/emails"
	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/quota"
	"coldemail-backend/internal/services/health"
	"coldemail-backend/internal/shared/config"
)

type countingClient struct {
	calls int32
}

func (c *countingClient) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	atomic.AddInt32(&c.calls, 1)
	return llm.Completion{Text: `{"readability":7,"estimatedResponseRate":2}`}, nil
}

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		BodyLimitBytes:  10 << 10,
	}
}

func newTestRouter(t *testing.T, client llm.Client, max int) *gin.Engine {
	t.Helper()
	return newTestRouterWithConfig(t, client, max, testConfig())
}

func newTestRouterWithConfig(t *testing.T, client llm.Client, max int, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config:       cfg,
		EmailHandler: emails.NewHandler(emails.NewService(client, "stub"), true),
		Health:       health.NewService("test", nil),
		Limiter:      quota.NewLimiter(quota.NewMemoryStore(), 15*time.Minute, max, nil),
	})
}

func analyzeRequest() *http.Request {
	body, _ := json.Marshal(map[string]string{"emailContent": "Hi Jane"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRateLimitRejectsExcessWithoutRemoteCall(t *testing.T) {
	client := &countingClient{}
	router := newTestRouter(t, client, 3)

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, analyzeRequest())
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d: %s", i+1, resp.Code, resp.Body.String())
		}
	}
	before := atomic.LoadInt32(&client.calls)

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, analyzeRequest())
		if resp.Code != http.StatusTooManyRequests {
			t.Fatalf("excess request %d expected 429, got %d", i+1, resp.Code)
		}
		if resp.Header().Get("Retry-After") == "" {
			t.Fatalf("expected Retry-After header")
		}
	}

	if after := atomic.LoadInt32(&client.calls); after != before {
		t.Fatalf("expected no remote calls for rejected requests, got %d extra", after-before)
	}
	if before != 3 {
		t.Fatalf("expected 3 remote calls, got %d", before)
	}
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	client := &countingClient{}
	router := newTestRouter(t, client, 2)

	rejected := 0
	for i := 0; i < 10; i++ {
		req := analyzeRequest()
		req.RemoteAddr = "203.0.113.7:41000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code == http.StatusTooManyRequests {
			rejected++
		}
	}

	if rejected != 8 {
		t.Fatalf("expected 8 rejected requests, got %d", rejected)
	}
	if calls := atomic.LoadInt32(&client.calls); calls != 2 {
		t.Fatalf("expected 2 remote calls, got %d", calls)
	}
}

func TestRateLimitHonorsForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"198.51.100.0/24"}
	client := &countingClient{}
	router := newTestRouterWithConfig(t, client, 1, cfg)

	for i := 0; i < 3; i++ {
		req := analyzeRequest()
		req.RemoteAddr = "198.51.100.10:443"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("client %d behind trusted proxy expected 200, got %d", i, resp.Code)
		}
	}

	req := analyzeRequest()
	req.RemoteAddr = "198.51.100.10:443"
	req.Header.Set("X-Forwarded-For", "10.0.0.0")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat client expected 429, got %d", resp.Code)
	}
}

func TestInvalidTrustedProxiesFallBackToPeer(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"not-an-ip"}
	client := &countingClient{}
	router := newTestRouterWithConfig(t, client, 1, cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := analyzeRequest()
		req.RemoteAddr = "203.0.113.9:1000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.1.0.%d", i))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}

func TestHealthIsNotRateLimited(t *testing.T) {
	router := newTestRouter(t, &countingClient{}, 1)

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		var payload health.Payload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		if payload.Status != "healthy" || payload.Environment != "test" || payload.Timestamp == "" {
			t.Fatalf("unexpected health payload %+v", payload)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &countingClient{}, 5)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, analyzeRequest())

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "completion_calls_total") {
		t.Fatalf("expected completion metrics in exposition")
	}
}

func TestUnknownRouteReturnsErrorEnvelope(t *testing.T) {
	router := newTestRouter(t, &countingClient{}, 5)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"not_found"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
