package task

// Derived values are computed from the state on demand rather than stored,
// so they can never drift from the fields they summarize.

// Progress returns completion as a percentage of subtasks reached, 0 when the
// plan is empty.
func Progress(s *State) float64 {
	if len(s.Subtasks) == 0 {
		return 0
	}
	return float64(s.CurrentSubtaskIndex) / float64(len(s.Subtasks)) * 100
}

// CurrentSubtask returns the subtask under the cursor, or "" when the plan is
// empty or exhausted.
func CurrentSubtask(s *State) string {
	if s.CurrentSubtaskIndex < 0 || s.CurrentSubtaskIndex >= len(s.Subtasks) {
		return ""
	}
	return s.Subtasks[s.CurrentSubtaskIndex]
}

// Snapshot is the read-only view served to presentation surfaces.
type Snapshot struct {
	TaskID          string  `json:"task_id"`
	Stage           string  `json:"stage"`
	Validation      string  `json:"validation"`
	ProgressPercent float64 `json:"progress_percent"`
	CurrentSubtask  string  `json:"current_subtask"`
	TotalSubtasks   int     `json:"total_subtasks"`
	ErrorCount      int     `json:"error_count"`
	CodeLength      int     `json:"code_length"`
}

// TakeSnapshot derives a Snapshot from the state.
func TakeSnapshot(s *State) Snapshot {
	return Snapshot{
		TaskID:          s.TaskID,
		Stage:           s.Status.String(),
		Validation:      s.Validation.String(),
		ProgressPercent: Progress(s),
		CurrentSubtask:  CurrentSubtask(s),
		TotalSubtasks:   len(s.Subtasks),
		ErrorCount:      len(s.ErrorsDetected),
		CodeLength:      len(s.CurrentCode),
	}
}
