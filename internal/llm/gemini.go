package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"gamewright/internal/config"
)

// GeminiClient is the hosted alternative to the local Ollama backend.
// Requires GEMINI_API_KEY.
type GeminiClient struct {
	client     *genai.Client
	timeout    time.Duration
	maxRetries int
	defaultMod string
}

func NewGeminiClient(cfg config.Config) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}
	return &GeminiClient{
		client:     c,
		timeout:    cfg.LLMTimeout,
		maxRetries: cfg.LLMMaxRetries,
		defaultMod: "gemini-2.0-flash",
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	if c.client == nil {
		return Response{}, ErrNotInitialized
	}

	model := strings.TrimSpace(req.Model)
	if model == "" || !strings.HasPrefix(strings.ToLower(model), "gemini-") {
		model = c.defaultMod
	}

	temp := float32(req.Temperature)
	gcfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		gcfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	return withRetry(ctx, c.maxRetries, c.timeout, func(attemptCtx context.Context) (Response, error) {
		resp, err := c.client.Models.GenerateContent(attemptCtx, model, genai.Text(req.Prompt), gcfg)
		if err != nil {
			return Response{}, fmt.Errorf("gemini generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return Response{}, fmt.Errorf("gemini: empty response")
		}

		out := Response{
			Model: model,
			Text:  resp.Candidates[0].Content.Parts[0].Text,
			Done:  true,
		}
		if resp.UsageMetadata != nil {
			out.PromptEvalCount = int(resp.UsageMetadata.PromptTokenCount)
			out.EvalCount = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		return out, nil
	})
}
