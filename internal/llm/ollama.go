package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"gamewright/internal/config"
)

// OllamaClient talks to a local Ollama server. It is the default inference
// backend.
type OllamaClient struct {
	client     *api.Client
	timeout    time.Duration
	maxRetries int
	defaultMod string
}

func NewOllamaClient(cfg config.Config) (*OllamaClient, error) {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		host := cfg.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		u, uerr := url.Parse(host)
		if uerr != nil {
			return nil, fmt.Errorf("ollama: bad host %q: %w", host, uerr)
		}
		c = api.NewClient(u, http.DefaultClient)
	}
	return &OllamaClient{
		client:     c,
		timeout:    cfg.LLMTimeout,
		maxRetries: cfg.LLMMaxRetries,
		defaultMod: cfg.Models.Default,
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, req Request) (Response, error) {
	if c.client == nil {
		return Response{}, ErrNotInitialized
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultMod
	}

	stream := false
	areq := &api.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	return withRetry(ctx, c.maxRetries, c.timeout, func(attemptCtx context.Context) (Response, error) {
		var out Response
		var text strings.Builder
		err := c.client.Generate(attemptCtx, areq, func(gr api.GenerateResponse) error {
			text.WriteString(gr.Response)
			out.Model = gr.Model
			out.Done = gr.Done
			out.PromptEvalCount = gr.PromptEvalCount
			out.EvalCount = gr.EvalCount
			out.TotalDuration = gr.TotalDuration
			return nil
		})
		if err != nil {
			return Response{}, fmt.Errorf("ollama generate: %w", err)
		}
		out.Text = text.String()
		if out.Model == "" {
			out.Model = model
		}
		return out, nil
	})
}
