package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/config"
)

type fixedClient struct {
	text string
}

func (f fixedClient) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	return llm.Completion{Text: f.text}, nil
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const requestJSON = `{"prospect":{"name":"Jane","company":"Acme","role":"Manager"},"product":{"description":"X","painPoint":"Y","solution":"Z"},"strategy":{"ctaType":"soft"}}`

func TestRunPrintPrompt(t *testing.T) {
	path := writeFile(t, "request.json", requestJSON)

	out, err := run(context.Background(), config.Config{}, options{requestPath: path, printPrompt: true}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "--- system ---") || !strings.Contains(text, "Prospect Company: Acme") {
		t.Fatalf("unexpected prompt output:\n%s", text)
	}
}

func TestRunGenerate(t *testing.T) {
	path := writeFile(t, "request.json", requestJSON)
	client := fixedClient{text: `{"variant1":"a","variant2":"b"}`}

	out, err := run(context.Background(), config.Config{LLMProvider: "stub"}, options{requestPath: path}, client)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got["variant1"] != "a" || got["variant2"] != "b" {
		t.Fatalf("unexpected output %v", got)
	}
}

func TestRunAnalyze(t *testing.T) {
	path := writeFile(t, "email.txt", "Hi Jane, quick question about Acme.")
	client := fixedClient{text: `{"estimatedResponseRate":9,"readability":6}`}

	out, err := run(context.Background(), config.Config{LLMProvider: "stub"}, options{analyze: true, emailPath: path}, client)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(string(out), `"estimatedResponseRate": 5`) {
		t.Fatalf("expected clamped rate in output:\n%s", out)
	}
}

func TestRunRequiresRequestPath(t *testing.T) {
	if _, err := run(context.Background(), config.Config{}, options{}, nil); err == nil {
		t.Fatalf("expected missing request path error")
	}
}
