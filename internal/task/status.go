package task

import "fmt"

// Status is the lifecycle state of a synthesis session. Transitions are
// strictly forward-moving; StatusFailed is reachable from any non-terminal
// state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPlanning  Status = "planning"
	StatusCoding    Status = "coding"
	StatusTesting   Status = "testing"
	StatusFixing    Status = "fixing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPlanning:  1,
	StatusCoding:    2,
	StatusTesting:   3,
	StatusFixing:    4,
	StatusCompleted: 5,
	StatusFailed:    6,
}

// CanTransition reports whether moving from one status to another is legal:
// forward in lifecycle order, never out of a terminal state, plus the
// explicit failure transition from anywhere.
func (s Status) CanTransition(to Status) bool {
	fromRank, ok := statusRank[s]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return toRank > fromRank
}

// ValidationStatus is set only by the final validation pass.
type ValidationStatus string

const (
	ValidationNotStarted ValidationStatus = "not_started"
	ValidationPending    ValidationStatus = "pending"
	ValidationPassed     ValidationStatus = "passed"
	ValidationFailed     ValidationStatus = "failed"
)

func (v ValidationStatus) String() string { return string(v) }

var validationRank = map[ValidationStatus]int{
	ValidationNotStarted: 0,
	ValidationPending:    1,
	ValidationPassed:     2,
	ValidationFailed:     2,
}

// CanTransition reports whether a validation-status change is legal. Passed
// and failed are terminal.
func (v ValidationStatus) CanTransition(to ValidationStatus) bool {
	fromRank, ok := validationRank[v]
	if !ok {
		return false
	}
	toRank, ok := validationRank[to]
	if !ok {
		return false
	}
	if v == ValidationPassed || v == ValidationFailed {
		return false
	}
	return toRank > fromRank
}

func invalidTransition(from, to fmt.Stringer) error {
	return fmt.Errorf("invalid transition %s -> %s", from, to)
}
