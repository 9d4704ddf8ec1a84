package display

import (
	"strings"
	"testing"

	"gamewright/internal/fixer"
	"gamewright/internal/task"
)

func TestFormatPlan(t *testing.T) {
	got := FormatPlan("a snake game", []string{
		"Initialize PyGame and the playing field",
		"Create the snake class with movement",
	})

	if !strings.Contains(got, "a snake game") {
		t.Errorf("plan output is missing the task description")
	}
	if !strings.Contains(got, "1. Initialize PyGame and the playing field") {
		t.Errorf("plan output is missing the first numbered subtask")
	}
	if !strings.Contains(got, "2. Create the snake class with movement") {
		t.Errorf("plan output is missing the second numbered subtask")
	}
}

func TestFormatStatus(t *testing.T) {
	snap := task.Snapshot{
		TaskID:          "task_x",
		Stage:           "coding",
		Validation:      "not_started",
		ProgressPercent: 50,
		CurrentSubtask:  "Add the player",
		TotalSubtasks:   4,
		ErrorCount:      2,
		CodeLength:      120,
	}

	got := FormatStatus(snap)
	for _, want := range []string{"task_x", "coding", "50%", "Add the player", "Errors detected: 2", "120 bytes"} {
		if !strings.Contains(got, want) {
			t.Errorf("status output is missing %q:\n%s", want, got)
		}
	}
}

func TestFormatReport(t *testing.T) {
	report := fixer.Report{
		ExecutionSuccess: false,
		ErrorsDetected: []fixer.Issue{
			{Type: "name_error", Description: "Undefined variable or function", Severity: "high"},
		},
		FixApplied:  true,
		Disposition: fixer.DispositionAutoFix,
	}

	got := FormatReport(report)
	for _, want := range []string{"[err]", "name_error", "auto_fix"} {
		if !strings.Contains(got, want) {
			t.Errorf("report output is missing %q:\n%s", want, got)
		}
	}
}

func TestFormatReportTruncatesLongDescriptions(t *testing.T) {
	report := fixer.Report{
		ErrorsDetected: []fixer.Issue{
			{Type: "syntax_error", Description: strings.Repeat("a", 200), Severity: "critical"},
		},
	}

	got := FormatReport(report)
	if strings.Contains(got, strings.Repeat("a", 150)) {
		t.Errorf("long description was not truncated")
	}
	if !strings.Contains(got, "...") {
		t.Errorf("truncation marker missing:\n%s", got)
	}
}

func TestFormatStateList(t *testing.T) {
	if got := FormatStateList(nil); got != "No saved tasks." {
		t.Errorf("empty list output = %q", got)
	}

	got := FormatStateList([]string{"task_a", "task_b"})
	if !strings.Contains(got, "2 saved task(s)") {
		t.Errorf("count missing:\n%s", got)
	}
	if !strings.Contains(got, "task_a") || !strings.Contains(got, "task_b") {
		t.Errorf("ids missing:\n%s", got)
	}
}
