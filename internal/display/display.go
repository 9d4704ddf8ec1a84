package display

import (
	"fmt"
	"strings"

	"gamewright/internal/fixer"
	"gamewright/internal/task"
)

const maxIssueDescLength = 100

func FormatPlan(taskDescription string, subtasks []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Development plan for: %s\n", taskDescription))
	sb.WriteString("--------------------------------------------------\n")
	for i, subtask := range subtasks {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, subtask))
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

func FormatStatus(snap task.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task %s\n", snap.TaskID))
	sb.WriteString(fmt.Sprintf("- Stage: %s  (validation=%s)\n", snap.Stage, snap.Validation))
	sb.WriteString(fmt.Sprintf("- Progress: %.0f%%  (%d subtasks)\n", snap.ProgressPercent, snap.TotalSubtasks))
	if snap.CurrentSubtask != "" {
		sb.WriteString(fmt.Sprintf("- Current subtask: %s\n", snap.CurrentSubtask))
	}
	sb.WriteString(fmt.Sprintf("- Errors detected: %d\n", snap.ErrorCount))
	sb.WriteString(fmt.Sprintf("- Code size: %d bytes", snap.CodeLength))
	return sb.String()
}

func FormatReport(report fixer.Report) string {
	var sb strings.Builder
	sb.WriteString("Validation report:\n")
	status := "ok"
	if !report.ExecutionSuccess {
		status = "err"
	}
	sb.WriteString(fmt.Sprintf("- Execution: [%s]\n", status))
	if len(report.ErrorsDetected) == 0 {
		sb.WriteString("- No issues detected\n")
	} else {
		sb.WriteString(fmt.Sprintf("- Issues (%d):\n", len(report.ErrorsDetected)))
		for _, issue := range report.ErrorsDetected {
			sb.WriteString(fmt.Sprintf("    %-22s %-8s %s\n",
				issue.Type, "("+issue.Severity+")", formatValueForDisplay(issue.Description)))
		}
	}
	sb.WriteString(fmt.Sprintf("- Fix applied: %v  (disposition=%s)", report.FixApplied, report.Disposition))
	return sb.String()
}

func FormatStateList(ids []string) string {
	if len(ids) == 0 {
		return "No saved tasks."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d saved task(s):\n", len(ids)))
	for i, id := range ids {
		sb.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, id))
	}
	return sb.String()
}

func formatValueForDisplay(value string) string {
	s := strings.ReplaceAll(value, "\n", "\\n")
	if len(s) > maxIssueDescLength {
		return s[:maxIssueDescLength] + "..."
	}
	return s
}
