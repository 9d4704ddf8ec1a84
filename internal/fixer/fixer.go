// Package fixer is the validator/repair loop: it inspects source statically,
// executes it in the sandbox, classifies failures, asks the caller for a
// disposition, and produces a repaired revision. Analysis never returns an
// error; every failure mode ends in some usable code.
package fixer

import (
	"context"
	"fmt"
	"strings"

	"gamewright/internal/config"
	"gamewright/internal/llm"
	"gamewright/internal/logger"
	"gamewright/internal/rag"
	"gamewright/internal/sandbox"
	"gamewright/internal/textutil"
)

// Disposition is how to proceed after validation surfaced issues.
type Disposition string

const (
	DispositionAutoFix      Disposition = "auto_fix"
	DispositionManualReview Disposition = "manual_review"
	DispositionSkip         Disposition = "skip"
	DispositionCancel       Disposition = "cancel"
	// DispositionSuccess is the implicit outcome of a clean run; it is never
	// requested from the handler.
	DispositionSuccess Disposition = "success"
)

// ParseDisposition maps free input onto a disposition; anything unrecognized
// defaults to auto_fix.
func ParseDisposition(s string) Disposition {
	switch Disposition(strings.TrimSpace(strings.ToLower(s))) {
	case DispositionManualReview:
		return DispositionManualReview
	case DispositionSkip:
		return DispositionSkip
	case DispositionCancel:
		return DispositionCancel
	default:
		return DispositionAutoFix
	}
}

// Report is the outcome of one analyze/repair cycle.
type Report struct {
	Code             string
	ExecutionSuccess bool
	ExecutionOutput  string
	ErrorsDetected   []Issue
	FixedCode        string
	FixApplied       bool
	Disposition      Disposition
}

// DispositionFunc is the suspend point of the repair loop: the caller
// receives the analysis so far and answers with a disposition. A nil
// handler means auto_fix.
type DispositionFunc func(Report) Disposition

type Fixer struct {
	gen         llm.Generator
	index       rag.Searcher
	runner      sandbox.Runner
	models      config.Models
	disposition DispositionFunc
}

func New(gen llm.Generator, index rag.Searcher, runner sandbox.Runner, models config.Models, disposition DispositionFunc) *Fixer {
	return &Fixer{gen: gen, index: index, runner: runner, models: models, disposition: disposition}
}

// AnalyzeCode runs the full cycle: static checklist, sandboxed execution
// of the sanitized source, runtime classification, disposition, repair.
// FixApplied is true iff FixedCode differs from the input code.
func (f *Fixer) AnalyzeCode(ctx context.Context, code, taskDescription string) Report {
	logger.Log.Printf("[fixer] analyzing %d chars", len(code))

	report := Report{Code: code, FixedCode: code}
	report.ErrorsDetected = staticAnalysis(code)

	run, err := f.runner.Run(ctx, Sanitize(code))
	if err != nil {
		run = sandbox.Result{ExitCode: -1, Stderr: fmt.Sprintf("Execution error: %v", err)}
	}
	report.ExecutionSuccess = run.Success()
	report.ExecutionOutput = run.Output()

	if !report.ExecutionSuccess {
		report.ErrorsDetected = append(report.ErrorsDetected, f.classifyRuntime(ctx, run.Output())...)
	}

	if report.ExecutionSuccess && len(report.ErrorsDetected) == 0 {
		report.Disposition = DispositionSuccess
		report.FixedCode = Sanitize(code)
		report.FixApplied = report.FixedCode != code
		return report
	}

	report.Disposition = f.askDisposition(report)
	report.FixedCode = f.repair(ctx, code, report.ErrorsDetected, report.Disposition, taskDescription)
	report.FixApplied = report.FixedCode != code

	logger.Log.Printf("[fixer] disposition=%s issues=%d fixApplied=%v",
		report.Disposition, len(report.ErrorsDetected), report.FixApplied)
	return report
}

func (f *Fixer) askDisposition(report Report) Disposition {
	if f.disposition == nil {
		return DispositionAutoFix
	}
	switch d := f.disposition(report); d {
	case DispositionAutoFix, DispositionManualReview, DispositionSkip, DispositionCancel:
		return d
	default:
		return DispositionAutoFix
	}
}

// repair produces the fixed revision. Skip and manual review only sanitize;
// otherwise mechanical fixes are applied first and the model is consulted
// only when critical issues remain and the disposition allows it. Never
// fails: any escalation fault falls back to the pre-escalation code.
func (f *Fixer) repair(ctx context.Context, code string, issues []Issue, d Disposition, taskDescription string) string {
	sanitized := Sanitize(code)
	if len(issues) == 0 || d == DispositionSkip || d == DispositionManualReview {
		return sanitized
	}

	fixed := applyMechanicalFixes(sanitized, issues)

	if d != DispositionAutoFix {
		return fixed
	}
	if !hasCritical(staticAnalysis(fixed)) && !hasCriticalRuntime(issues) {
		return fixed
	}

	escalated, err := f.escalate(ctx, code, issues, taskDescription)
	if err != nil || escalated == "" {
		logger.Log.Printf("[fixer] escalation failed, keeping mechanical fixes: %v", err)
		return fixed
	}
	return escalated
}

// applyMechanicalFixes handles the deterministic repairs: currently a single
// pygame.init() injected immediately after the import, exactly once.
func applyMechanicalFixes(code string, issues []Issue) string {
	if !hasIssueType(issues, "missing_init") || strings.Contains(code, "pygame.init()") {
		return code
	}

	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines)+1)
	inserted := false
	for _, line := range lines {
		out = append(out, line)
		if !inserted && strings.Contains(line, "import pygame") {
			out = append(out, "pygame.init()")
			inserted = true
		}
	}
	return strings.Join(out, "\n")
}

// hasCriticalRuntime reports critical issues mechanical fixes cannot clear.
func hasCriticalRuntime(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity != SeverityCritical {
			continue
		}
		switch issue.Type {
		case "encoding_error", "missing_init", "non_ascii_chars":
			// Cleared by sanitation or mechanical fixes.
		default:
			return true
		}
	}
	return false
}

// escalate asks the fixer model for a complete corrected source, grounded on
// retrieved error-pattern solutions.
func (f *Fixer) escalate(ctx context.Context, code string, issues []Issue, taskDescription string) (string, error) {
	var summary strings.Builder
	for i, issue := range issues {
		if i == 3 {
			break
		}
		summary.WriteString(fmt.Sprintf("- %s: %s\n", issue.Type, issue.Description))
	}

	var solutions []string
	for i, issue := range issues {
		if i == 2 {
			break
		}
		if hits := f.index.Search(ctx, issue.Type, rag.CategoryErrorPatterns, 1); len(hits) > 0 {
			solutions = append(solutions, hits[0].Text)
		}
	}
	solutionContext := strings.Join(solutions, "\n\n")
	if solutionContext == "" {
		solutionContext = "Use standard PyGame error fixing patterns."
	}

	system := fmt.Sprintf(`You are a PyGame error fixing expert.

TASK: %s

DETECTED ERRORS:
%s
%s

INSTRUCTIONS:
1. Analyze the code below
2. Fix ALL detected errors
3. Keep working functionality
4. Return COMPLETE fixed code
5. Code must compile and run
6. Use ONLY ASCII characters (English only)
7. Add '%s' at the top

Return only the fixed Python code without explanations.`,
		taskDescription, summary.String(), solutionContext, EncodingDecl)

	resp, err := f.gen.Generate(ctx, llm.Request{
		Model:       f.models.Fixer,
		Prompt:      fmt.Sprintf("Fix errors in code:\n```python\n%s\n```", code),
		System:      system,
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", err
	}

	fixed := Sanitize(textutil.StripCodeFence(resp.Text))
	logger.Log.Printf("[fixer] model produced fixed code (%d chars)", len(fixed))
	return fixed, nil
}
