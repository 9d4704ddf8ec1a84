package fixer

import "strings"

// Severity levels of detected issues.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
)

// Issue is one detected defect, static or runtime.
type Issue struct {
	Type        string
	Description string
	Severity    string
	RAGContext  string
}

// staticAnalysis scans the source text against a fixed checklist. Pure text
// inspection; nothing is executed.
func staticAnalysis(code string) []Issue {
	var issues []Issue

	if !strings.HasPrefix(code, EncodingDecl) {
		issues = append(issues, Issue{
			Type:        "encoding_error",
			Description: "Missing encoding declaration",
			Severity:    SeverityCritical,
		})
	}

	if !strings.Contains(code, "import pygame") {
		issues = append(issues, Issue{
			Type:        "missing_import",
			Description: "Missing pygame import",
			Severity:    SeverityCritical,
		})
	}

	if !strings.Contains(code, "pygame.init()") {
		issues = append(issues, Issue{
			Type:        "missing_init",
			Description: "Missing pygame.init()",
			Severity:    SeverityCritical,
		})
	}

	if !strings.Contains(code, "while") || !strings.Contains(code, "pygame.event.get()") {
		issues = append(issues, Issue{
			Type:        "missing_game_loop",
			Description: "No main game loop found",
			Severity:    SeverityHigh,
		})
	}

	if !strings.Contains(code, "pygame.display.flip()") && !strings.Contains(code, "pygame.display.update()") {
		issues = append(issues, Issue{
			Type:        "missing_display_update",
			Description: "No screen update found",
			Severity:    SeverityHigh,
		})
	}

	if hasNonASCII(code) {
		issues = append(issues, Issue{
			Type:        "non_ascii_chars",
			Description: "Code contains non-ASCII characters",
			Severity:    SeverityCritical,
		})
	}

	return issues
}

func hasNonASCII(code string) bool {
	for _, r := range code {
		if r > 127 {
			return true
		}
	}
	return false
}

func hasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func hasIssueType(issues []Issue, issueType string) bool {
	for _, issue := range issues {
		if issue.Type == issueType {
			return true
		}
	}
	return false
}
