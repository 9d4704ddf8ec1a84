// Package coder turns one subtask into the next full source revision,
// grounded on retrieved code templates.
package coder

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gamewright/internal/config"
	"gamewright/internal/llm"
	"gamewright/internal/logger"
	"gamewright/internal/rag"
	"gamewright/internal/textutil"
)

type Coder struct {
	gen    llm.Generator
	index  rag.Searcher
	models config.Models
}

func New(gen llm.Generator, index rag.Searcher, models config.Models) *Coder {
	return &Coder{gen: gen, index: index, models: models}
}

// Generate returns the complete source after applying the modification to
// currentCode; an empty currentCode means "create from scratch". It never
// fails: an inference error yields a minimal runnable skeleton annotated
// with the failure reason, so the pipeline always receives some code back.
func (c *Coder) Generate(ctx context.Context, currentCode, modification string, temperature float64, maxTokens int) string {
	logger.Log.Printf("[coder] generating code for: %s", modification)

	codeTemplates := c.index.Search(ctx, modification, rag.CategoryCodeTemplates, 2)
	taskPlans := c.index.Search(ctx, modification, rag.CategoryTaskPlans, 1)

	system := buildSystemPrompt(currentCode, modification, buildContext(codeTemplates, taskPlans))
	prompt := fmt.Sprintf("Apply this change to the PyGame code: %s", modification)

	resp, err := c.gen.Generate(ctx, llm.Request{
		Model:       c.models.Coder,
		Prompt:      prompt,
		System:      system,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		logger.Log.Printf("[coder] inference failed, returning fallback skeleton: %v", err)
		return fallbackSkeleton(modification, err)
	}

	code := textutil.StripPreamble(textutil.StripCodeFence(resp.Text))

	if !looksRunnable(code) {
		logger.Log.Printf("[coder] generated code failed the sanity check (missing pygame setup)")
	}

	logger.Log.Printf("[coder] generated %d chars", len(code))
	return code
}

func buildContext(codeTemplates, taskPlans []rag.Result) string {
	if len(codeTemplates) == 0 && len(taskPlans) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("=== KNOWLEDGE BASE EXAMPLES ===\n")

	if len(codeTemplates) > 0 {
		sb.WriteString("\nCode templates:\n")
		for i, tmpl := range codeTemplates {
			sb.WriteString(fmt.Sprintf("\nTemplate %d (%s):\n", i+1, metaOr(tmpl, "type", "code")))
			sb.WriteString("```python\n" + clip(tmpl.Text, 300) + "\n```\n")
		}
	}

	if len(taskPlans) > 0 {
		sb.WriteString("\nPlan examples:\n")
		for i, plan := range taskPlans {
			sb.WriteString(fmt.Sprintf("\nPlan %d (%s):\n", i+1, metaOr(plan, "type", "plan")))
			sb.WriteString(clip(plan.Text, 400) + "\n")
		}
	}
	return sb.String()
}

func buildSystemPrompt(currentCode, modification, ragContext string) string {
	if ragContext == "" {
		ragContext = "Use standard PyGame patterns."
	}
	codeSection := currentCode
	if codeSection == "" {
		codeSection = "# No code yet - create the game from scratch"
	}

	var sb strings.Builder
	sb.WriteString("You are a PyGame code editor. You are given the current game code.\n")
	sb.WriteString(fmt.Sprintf("Your task is to apply this change: %s\n\n", modification))
	sb.WriteString(ragContext)
	sb.WriteString("\n\n=== INSTRUCTIONS ===\n")
	sb.WriteString("1. Return the FULL code after the change, not a diff\n")
	sb.WriteString("2. Do not remove working functionality without need\n")
	sb.WriteString("3. Change the minimum required for the task\n")
	sb.WriteString("4. Preserve the structure and style of the existing code\n")
	sb.WriteString("5. Add new classes, functions or variables where needed\n")
	sb.WriteString("6. Keep the code runnable\n\n")
	sb.WriteString("Current game code:\n```python\n")
	sb.WriteString(codeSection)
	sb.WriteString("\n```\n\n=== REQUIREMENTS ===\n")
	sb.WriteString("- Output Python code only, no Markdown and no explanations\n")
	sb.WriteString("- Comment only non-obvious parts\n")
	sb.WriteString("- Use correct indentation and formatting\n")
	sb.WriteString("- The code must run without errors\n\n")
	sb.WriteString("Return the full modified code:")
	return sb.String()
}

// looksRunnable is the minimal sanity check: the framework import and the
// display setup call must both be present.
func looksRunnable(code string) bool {
	return strings.Contains(code, "import pygame") &&
		strings.Contains(code, "pygame.display.set_mode")
}

// fallbackSkeleton is the deterministic program returned when inference is
// unavailable. It opens a window and runs an empty event loop.
func fallbackSkeleton(modification string, cause error) string {
	reason := cause.Error()
	if len(reason) > 100 {
		reason = reason[:100]
	}

	return fmt.Sprintf(`# -*- coding: utf-8 -*-
# Fallback program for: %s
# Model request failed: %s
import pygame

def main():
    pygame.init()
    screen = pygame.display.set_mode((800, 600))
    clock = pygame.time.Clock()
    running = True

    while running:
        for event in pygame.event.get():
            if event.type == pygame.QUIT:
                running = False

        screen.fill((0, 0, 0))
        pygame.display.flip()
        clock.tick(60)

    pygame.quit()

if __name__ == "__main__":
    main()
`, strings.ReplaceAll(modification, "\n", " "), strings.ReplaceAll(reason, "\n", " "))
}

func metaOr(r rag.Result, key, fallback string) string {
	if v := r.Metadata[key]; v != "" {
		return v
	}
	return fallback
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
