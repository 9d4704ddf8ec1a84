// Package task holds the durable record of one synthesis session: its plan,
// code revisions, detected errors and lifecycle status, plus the file-backed
// store that persists it between process restarts.
package task

import (
	"time"

	"gamewright/internal/logger"
)

// Revision is one full replacement of the source text. PreviousCode always
// equals the session's current code at the moment the revision was appended.
type Revision struct {
	Timestamp    string `json:"timestamp"`
	Subtask      string `json:"subtask"`
	PreviousCode string `json:"previous_code"`
	NewCode      string `json:"new_code"`
	ModelUsed    string `json:"model_used"`
}

// ErrorRecord is one detected defect, static or runtime.
type ErrorRecord struct {
	Type         string `json:"type"`
	Description  string `json:"description"`
	CodeContext  string `json:"code_context"`
	Timestamp    string `json:"timestamp"`
	UserFeedback string `json:"user_feedback,omitempty"`
}

// State is the complete record of one synthesis session. It is mutated only
// by the orchestrator and the stage it is currently running, and persisted
// after every mutating step.
type State struct {
	TaskID       string `json:"task_id"`
	OriginalTask string `json:"original_task"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`

	Status     Status           `json:"task_status"`
	Validation ValidationStatus `json:"validation_status"`

	Subtasks            []string `json:"subtasks"`
	CurrentSubtaskIndex int      `json:"current_subtask_index"`

	CurrentCode string     `json:"current_code"`
	CodeHistory []Revision `json:"code_history"`

	ErrorsDetected []ErrorRecord `json:"errors_detected"`

	ModelsUsed           []string          `json:"models_used"`
	RAGSearches          int               `json:"rag_searches"`
	TotalExecutions      int               `json:"total_executions"`
	SuccessfulExecutions int               `json:"successful_executions"`
	Metadata             map[string]string `json:"metadata"`
}

func now() string { return time.Now().Format(time.RFC3339) }

func (s *State) touch() { s.UpdatedAt = now() }

// SetStatus applies a lifecycle transition, rejecting any move the state
// machine does not allow.
func (s *State) SetStatus(to Status) error {
	if s.Status == to {
		return nil
	}
	if !s.Status.CanTransition(to) {
		return invalidTransition(s.Status, to)
	}
	s.Status = to
	s.touch()
	return nil
}

// SetValidation records the final validation verdict.
func (s *State) SetValidation(to ValidationStatus) error {
	if s.Validation == to {
		return nil
	}
	if !s.Validation.CanTransition(to) {
		return invalidTransition(s.Validation, to)
	}
	s.Validation = to
	s.touch()
	return nil
}

// SetPlan installs the ordered subtask list and resets the cursor.
func (s *State) SetPlan(subtasks []string) {
	s.Subtasks = subtasks
	s.CurrentSubtaskIndex = 0
	s.touch()
}

// AdvanceSubtask moves the cursor forward by one, bounded by the plan length.
// Returns false when the plan is exhausted.
func (s *State) AdvanceSubtask() bool {
	if s.CurrentSubtaskIndex+1 >= len(s.Subtasks) {
		return false
	}
	s.CurrentSubtaskIndex++
	s.touch()
	return true
}

// AddRevision appends a full code replacement to the history and promotes it
// to the current code, preserving the history-chain invariant.
func (s *State) AddRevision(subtask, newCode, modelUsed string) {
	s.CodeHistory = append(s.CodeHistory, Revision{
		Timestamp:    now(),
		Subtask:      subtask,
		PreviousCode: s.CurrentCode,
		NewCode:      newCode,
		ModelUsed:    modelUsed,
	})
	s.CurrentCode = newCode
	s.touch()
	logger.Log.Printf("[task %s] code updated for subtask: %s", s.TaskID, subtask)
}

// AddError appends one detected defect.
func (s *State) AddError(errType, description, codeContext, userFeedback string) {
	s.ErrorsDetected = append(s.ErrorsDetected, ErrorRecord{
		Type:         errType,
		Description:  description,
		CodeContext:  codeContext,
		Timestamp:    now(),
		UserFeedback: userFeedback,
	})
	s.touch()
	logger.Log.Printf("[task %s] error recorded: %s", s.TaskID, errType)
}

// RecordModel notes a model used by a pipeline stage.
func (s *State) RecordModel(model string) {
	s.ModelsUsed = append(s.ModelsUsed, model)
	s.touch()
}

// RecordRAGSearches bumps the retrieval counter.
func (s *State) RecordRAGSearches(n int) {
	s.RAGSearches += n
	s.touch()
}

// RecordExecution bumps the sandbox-run counters.
func (s *State) RecordExecution(success bool) {
	s.TotalExecutions++
	if success {
		s.SuccessfulExecutions++
	}
	s.touch()
}
