// Package planner decomposes a free-text game request into an ordered list
// of atomic subtasks, grounded on retrieved exemplar plans.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gamewright/internal/config"
	"gamewright/internal/llm"
	"gamewright/internal/logger"
	"gamewright/internal/rag"
)

const (
	minLineLen    = 10
	minSubtaskLen = 15
	maxSubtasks   = 7
	minSubtasks   = 3
)

// Accepted list shapes: "1. text", "1) text", "- text", "1 text".
var subtaskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+[.)]\s*(.+)$`),
	regexp.MustCompile(`^[-*•]\s*(.+)$`),
	regexp.MustCompile(`^\d+\s+(.+)$`),
}

type Planner struct {
	gen    llm.Generator
	index  rag.Searcher
	models config.Models
}

func New(gen llm.Generator, index rag.Searcher, models config.Models) *Planner {
	return &Planner{gen: gen, index: index, models: models}
}

// Decompose turns a task description into 3-7 ordered subtasks. It never
// fails: any inference error or unusable model output falls back to a fixed
// plan (archetype-specific when the task matches one).
func (p *Planner) Decompose(ctx context.Context, taskDescription string) []string {
	logger.Log.Printf("[planner] decomposing: %s", taskDescription)

	similarPlans := p.index.Search(ctx, taskDescription, rag.CategoryTaskPlans, 2)
	codeTemplates := p.index.Search(ctx, taskDescription, rag.CategoryCodeTemplates, 1)

	system := buildSystemPrompt(buildContext(similarPlans, codeTemplates))
	prompt := fmt.Sprintf("Task: %s\n\nCreate a development plan for this PyGame game.", taskDescription)

	resp, err := p.gen.Generate(ctx, llm.Request{
		Model:       p.models.Planner,
		Prompt:      prompt,
		System:      system,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		logger.Log.Printf("[planner] inference failed, using fallback plan: %v", err)
		return fallbackPlan(taskDescription)
	}

	subtasks := parseSubtasks(resp.Text)
	if len(subtasks) < minSubtasks {
		logger.Log.Printf("[planner] parsed only %d subtasks, using fallback plan", len(subtasks))
		return fallbackPlan(taskDescription)
	}

	logger.Log.Printf("[planner] created %d subtasks", len(subtasks))
	return subtasks
}

func buildContext(similarPlans, codeTemplates []rag.Result) string {
	var sb strings.Builder

	if len(similarPlans) > 0 {
		sb.WriteString("SIMILAR PLANS FROM THE KNOWLEDGE BASE:\n\n")
		for i, plan := range similarPlans {
			sb.WriteString(fmt.Sprintf("Plan %d (%s):\n", i+1, metaOr(plan, "type", "plan")))
			sb.WriteString(clip(plan.Text, 300))
			sb.WriteString("\n\n")
		}
	}

	if len(codeTemplates) > 0 {
		sb.WriteString("SIMILAR CODE TEMPLATES:\n\n")
		for i, tmpl := range codeTemplates {
			sb.WriteString(fmt.Sprintf("Template %d (%s):\n", i+1, metaOr(tmpl, "type", "code")))
			sb.WriteString(fmt.Sprintf("Tags: %s\n\n", tmpl.Metadata["tags"]))
		}
	}

	if sb.Len() == 0 {
		return "Use standard PyGame patterns."
	}
	return sb.String()
}

func buildSystemPrompt(ragContext string) string {
	var sb strings.Builder
	sb.WriteString("You are a PyGame game architect. Break the task into logical subtasks.\n\n")
	sb.WriteString(ragContext)
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString("1. Analyze the user's task\n")
	sb.WriteString("2. Break it into 3-7 subtasks, ordered from foundational to refining\n")
	sb.WriteString("3. Each subtask must be atomic and implementable on its own\n")
	sb.WriteString("4. Respect dependencies between subtasks\n")
	sb.WriteString("5. Answer with a numbered list only\n\n")
	sb.WriteString("Sample answer for \"a moving square\":\n")
	sb.WriteString("1. Initialize PyGame and create an 800x600 window\n")
	sb.WriteString("2. Create the square object with color, size and position\n")
	sb.WriteString("3. Implement arrow-key movement for the square\n")
	sb.WriteString("4. Keep the square inside the screen bounds\n")
	sb.WriteString("5. Set up the game loop and rendering\n")
	return sb.String()
}

// parseSubtasks extracts plan entries from model output with a tolerant
// line matcher, dropping short lines and example/markup leakage.
func parseSubtasks(response string) []string {
	var subtasks []string

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLen {
			continue
		}

		for _, pattern := range subtaskPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			subtask := strings.TrimSpace(m[1])
			if len(subtask) > minSubtaskLen &&
				!strings.HasPrefix(subtask, "```") &&
				!strings.Contains(strings.ToLower(subtask), "example") {
				subtasks = append(subtasks, subtask)
			}
			break
		}

		if len(subtasks) == maxSubtasks {
			break
		}
	}
	return subtasks
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
