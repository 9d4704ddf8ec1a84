package fixer

import (
	"context"
	"strings"
	"unicode/utf8"

	"gamewright/internal/rag"
)

// runtimeCheck maps an output marker set to an issue in the fixed taxonomy.
type runtimeCheck struct {
	issueType   string
	description string
	severity    string
	matches     func(output string) bool
}

var runtimeChecks = []runtimeCheck{
	{
		issueType:   "encoding_error",
		description: "Encoding problem (file not UTF-8)",
		severity:    SeverityCritical,
		matches: func(out string) bool {
			return strings.Contains(out, "Non-UTF-8 code") || strings.Contains(out, "encoding declared")
		},
	},
	{
		issueType:   "import_error",
		description: "Module import error",
		severity:    SeverityCritical,
		matches: func(out string) bool {
			return strings.Contains(out, "ImportError") || strings.Contains(out, "ModuleNotFoundError")
		},
	},
	{
		issueType:   "name_error",
		description: "Undefined variable or function",
		severity:    SeverityHigh,
		matches: func(out string) bool {
			return strings.Contains(out, "NameError")
		},
	},
	{
		issueType:   "syntax_error",
		description: "Syntax or indentation error",
		severity:    SeverityCritical,
		matches: func(out string) bool {
			return strings.Contains(out, "SyntaxError") || strings.Contains(out, "IndentationError")
		},
	},
	{
		issueType:   "attribute_error",
		description: "Object attribute error",
		severity:    SeverityHigh,
		matches: func(out string) bool {
			return strings.Contains(out, "AttributeError")
		},
	},
	{
		issueType:   "black_screen_or_timeout",
		description: "Black screen or infinite loop",
		severity:    SeverityHigh,
		matches: func(out string) bool {
			return strings.TrimSpace(out) == "" ||
				strings.Contains(strings.ToLower(out), "timeout") ||
				strings.Contains(strings.ToLower(out), "infinite loop")
		},
	},
}

// classifyRuntime pattern-matches the captured sandbox output against the
// fixed error taxonomy, attaching retrieval context for each match.
func (f *Fixer) classifyRuntime(ctx context.Context, output string) []Issue {
	query := clip(output, 100)
	if strings.TrimSpace(query) == "" {
		query = "runtime error"
	}
	similar := f.index.Search(ctx, query, rag.CategoryErrorPatterns, 3)

	var issues []Issue
	for _, check := range runtimeChecks {
		if !check.matches(output) {
			continue
		}
		issues = append(issues, Issue{
			Type:        check.issueType,
			Description: check.description,
			Severity:    check.severity,
			RAGContext:  extractRAGContext(similar, check.issueType),
		})
	}
	return issues
}

// extractRAGContext returns the first retrieved pattern whose type matches,
// ASCII-cleaned and clipped, or "" when none matched.
func extractRAGContext(hits []rag.Result, issueType string) string {
	for _, hit := range hits {
		if !strings.Contains(hit.Metadata["type"], issueType) {
			continue
		}
		var b strings.Builder
		for _, r := range hit.Text {
			if r < 128 || r == '\n' || r == '\t' || r == '\r' {
				b.WriteRune(r)
			}
		}
		return clip(b.String(), 300)
	}
	return ""
}

// clip truncates to at most n bytes without splitting a rune, so clipped
// tracebacks stay valid UTF-8 for the retrieval query.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
