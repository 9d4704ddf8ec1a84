package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"pending to planning", StatusPending, StatusPlanning, true},
		{"planning to coding", StatusPlanning, StatusCoding, true},
		{"coding to testing", StatusCoding, StatusTesting, true},
		{"testing to completed", StatusTesting, StatusCompleted, true},
		{"skip ahead pending to testing", StatusPending, StatusTesting, true},
		{"backwards coding to planning", StatusCoding, StatusPlanning, false},
		{"fail from pending", StatusPending, StatusFailed, true},
		{"fail from testing", StatusTesting, StatusFailed, true},
		{"out of completed", StatusCompleted, StatusCoding, false},
		{"out of failed", StatusFailed, StatusPending, false},
		{"completed to failed", StatusCompleted, StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestSetStatusRejectsIllegalMove(t *testing.T) {
	s := &State{Status: StatusCoding}

	err := s.SetStatus(StatusPlanning)
	require.Error(t, err)
	assert.Equal(t, StatusCoding, s.Status)

	require.NoError(t, s.SetStatus(StatusTesting))
	assert.Equal(t, StatusTesting, s.Status)
}

func TestValidationTransitions(t *testing.T) {
	s := &State{Validation: ValidationNotStarted}

	require.NoError(t, s.SetValidation(ValidationPending))
	require.NoError(t, s.SetValidation(ValidationPassed))

	err := s.SetValidation(ValidationFailed)
	require.Error(t, err, "passed is terminal")
	assert.Equal(t, ValidationPassed, s.Validation)
}

func TestAddRevisionMaintainsHistoryChain(t *testing.T) {
	s := &State{TaskID: "task_x"}

	s.AddRevision("create window", "code v1", "codellama:7b-instruct")
	s.AddRevision("add player", "code v2", "codellama:7b-instruct")
	s.AddRevision("add score", "code v3", "codellama:7b-instruct")

	require.Len(t, s.CodeHistory, 3)
	assert.Equal(t, "code v3", s.CurrentCode)

	// Each revision's previous code is the prior revision's new code.
	assert.Equal(t, "", s.CodeHistory[0].PreviousCode)
	for i := 1; i < len(s.CodeHistory); i++ {
		assert.Equal(t, s.CodeHistory[i-1].NewCode, s.CodeHistory[i].PreviousCode)
	}
}

func TestAdvanceSubtaskBounded(t *testing.T) {
	s := &State{}
	s.SetPlan([]string{"a", "b", "c"})

	assert.True(t, s.AdvanceSubtask())
	assert.True(t, s.AdvanceSubtask())
	assert.False(t, s.AdvanceSubtask(), "cursor must stop at the last subtask")
	assert.Equal(t, 2, s.CurrentSubtaskIndex)
}

func TestProgressStaysInRange(t *testing.T) {
	s := &State{}
	assert.Equal(t, 0.0, Progress(s), "empty plan reports zero")

	s.SetPlan([]string{"a", "b", "c", "d"})
	prev := Progress(s)
	for s.AdvanceSubtask() {
		p := Progress(s)
		assert.GreaterOrEqual(t, p, prev, "progress must not decrease")
		assert.LessOrEqual(t, p, 100.0)
		prev = p
	}
	assert.Equal(t, 75.0, Progress(s))
}

func TestTakeSnapshot(t *testing.T) {
	s := &State{
		TaskID:     "task_y",
		Status:     StatusCoding,
		Validation: ValidationNotStarted,
	}
	s.SetPlan([]string{"first", "second"})
	s.AddRevision("first", "some code", "codellama:7b-instruct")
	s.AddError("name_error", "Undefined variable", "ctx", "")

	snap := TakeSnapshot(s)
	assert.Equal(t, "task_y", snap.TaskID)
	assert.Equal(t, "coding", snap.Stage)
	assert.Equal(t, "first", snap.CurrentSubtask)
	assert.Equal(t, 2, snap.TotalSubtasks)
	assert.Equal(t, 1, snap.ErrorCount)
	assert.Equal(t, len("some code"), snap.CodeLength)
}

func TestRecordExecution(t *testing.T) {
	s := &State{}
	s.RecordExecution(true)
	s.RecordExecution(false)
	s.RecordExecution(true)

	assert.Equal(t, 3, s.TotalExecutions)
	assert.Equal(t, 2, s.SuccessfulExecutions)
}
