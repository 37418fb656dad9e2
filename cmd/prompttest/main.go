package main

// Try prompts against the configured provider:
//   go run ./cmd/prompttest -request testdata/request.json
//   go run ./cmd/prompttest -analyze -email testdata/email.txt
//   go run ./cmd/prompttest -request testdata/request.json -print-prompt

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"coldemail-backend/internal/bootstrap"
	"coldemail-backend/internal/emails"
	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/config"
)

type options struct {
	requestPath string
	emailPath   string
	outPath     string
	analyze     bool
	printPrompt bool
	provider    string
	model       string
}

func main() {
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.requestPath, "request", "", "Path to a generation request JSON file")
	flag.StringVar(&opts.emailPath, "email", "", "Path to an email text file (with -analyze)")
	flag.StringVar(&opts.outPath, "out", "", "Path to write JSON output (optional)")
	flag.BoolVar(&opts.analyze, "analyze", false, "Score an email instead of generating drafts")
	flag.BoolVar(&opts.printPrompt, "print-prompt", false, "Print the rendered prompt without calling the provider")
	flag.StringVar(&opts.provider, "provider", cfg.LLMProvider, "LLM provider (openai, ollama)")
	flag.StringVar(&opts.model, "model", cfg.LLMModel, "LLM model")
	flag.Parse()

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(opts.provider))
	cfg.LLMModel = opts.model

	out, err := run(context.Background(), cfg, opts, nil)
	if err != nil {
		exitErr(err.Error())
	}

	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, out, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(out); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

// run executes one generation or analysis. A nil client is built from cfg.
func run(ctx context.Context, cfg config.Config, opts options, client llm.Client) ([]byte, error) {
	if opts.analyze {
		email, err := readInput(opts.emailPath)
		if err != nil {
			return nil, fmt.Errorf("read email: %w", err)
		}
		if opts.printPrompt {
			prompt, err := emails.BuildAnalysisPrompt(email)
			if err != nil {
				return nil, err
			}
			return renderPrompt(prompt), nil
		}
		svc, err := service(cfg, client)
		if err != nil {
			return nil, err
		}
		result, err := svc.Analyze(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		return json.MarshalIndent(map[string]any{"metrics": result}, "", "  ")
	}

	if strings.TrimSpace(opts.requestPath) == "" {
		return nil, fmt.Errorf("request path is required")
	}
	raw, err := readInput(opts.requestPath)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req emails.GenerationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("invalid request json: %w", err)
	}
	if opts.printPrompt {
		prompt, err := emails.BuildGenerationPrompt(req)
		if err != nil {
			return nil, err
		}
		return renderPrompt(prompt), nil
	}
	svc, err := service(cfg, client)
	if err != nil {
		return nil, err
	}
	drafts, err := svc.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return json.MarshalIndent(drafts, "", "  ")
}

func service(cfg config.Config, client llm.Client) (*emails.Service, error) {
	if client == nil {
		built, err := bootstrap.BuildLLM(cfg)
		if err != nil {
			return nil, err
		}
		client = built
	}
	return emails.NewService(client, cfg.LLMProvider), nil
}

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func renderPrompt(p llm.Request) []byte {
	return []byte("--- system ---\n" + p.System + "\n--- user ---\n" + p.User + "\n")
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
