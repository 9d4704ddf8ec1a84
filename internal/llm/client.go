package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamewright/internal/config"
	"gamewright/internal/logger"
)

var ErrNotInitialized = errors.New("llm client is not initialized")

// Request is one inference call: a model name, user prompt, optional system
// prompt, and sampling limits.
type Request struct {
	Model       string
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Response carries the generated text plus token-count metadata reported by
// the backend.
type Response struct {
	Model           string
	Text            string
	Done            bool
	PromptEvalCount int
	EvalCount       int
	TotalDuration   time.Duration
}

// Generator is the inference-service collaborator. Implementations own
// network-failure semantics: retries are transparent to callers and only
// final exhaustion surfaces as an error.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// New builds the configured backend.
func New(cfg config.Config) (Generator, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.LLMBackend))
	switch backend {
	case "", "ollama":
		return NewOllamaClient(cfg)
	case "gemini":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", cfg.LLMBackend)
	}
}

// withRetry runs fn up to maxRetries times with a per-attempt timeout and
// exponential backoff (1s, 2s, 4s, ...) between attempts.
func withRetry(ctx context.Context, maxRetries int, perAttempt time.Duration, fn func(context.Context) (Response, error)) (Response, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
		resp, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// The caller cancelled; retrying would only mask that.
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}

		logger.Log.Printf("[llm] attempt %d/%d failed: %v", attempt+1, maxRetries, err)
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
		}
	}
	return Response{}, fmt.Errorf("llm request failed after %d attempts: %w", maxRetries, lastErr)
}
