// Package workflow defines the status state machines for tasks and sprints.
// Any transition not listed here is rejected; the store never applies a
// rejected transition partially.
package workflow

import (
	"github.com/millbridge/foreman/pkg/types"
)

// Transition is one allowed edge in a status state machine.
type Transition struct {
	From string
	To   string
}

// TaskTransitions returns all valid task status transitions.
//
// DONE is terminal: no edge leaves it. BLOCKED never resolves directly to
// DONE; a blocked task re-enters the flow and passes through REVIEW.
func TaskTransitions() []Transition {
	return []Transition{
		{From: types.TaskStatusTodo, To: types.TaskStatusInProgress},
		{From: types.TaskStatusTodo, To: types.TaskStatusBlocked},

		{From: types.TaskStatusInProgress, To: types.TaskStatusReview},
		{From: types.TaskStatusInProgress, To: types.TaskStatusBlocked},

		{From: types.TaskStatusReview, To: types.TaskStatusDone},
		{From: types.TaskStatusReview, To: types.TaskStatusBlocked},

		{From: types.TaskStatusBlocked, To: types.TaskStatusTodo},
		{From: types.TaskStatusBlocked, To: types.TaskStatusInProgress},
		{From: types.TaskStatusBlocked, To: types.TaskStatusReview},
	}
}

// SprintTransitions returns all valid sprint status transitions.
//
// A sprint must pass through ACTIVE before completing: PLANNING never skips
// directly to COMPLETED. COMPLETED and CANCELLED are terminal.
func SprintTransitions() []Transition {
	return []Transition{
		{From: types.SprintStatusPlanning, To: types.SprintStatusActive},
		{From: types.SprintStatusPlanning, To: types.SprintStatusCancelled},

		{From: types.SprintStatusActive, To: types.SprintStatusCompleted},
		{From: types.SprintStatusActive, To: types.SprintStatusCancelled},
	}
}

// CheckTask validates a task status transition. A nil return means the edge
// is allowed. Requesting the current status is a no-op edge and is allowed.
func CheckTask(from, to string) error {
	return check(types.EntityTask, TaskTransitions(), from, to)
}

// CheckSprint validates a sprint status transition. A nil return means the
// edge is allowed. Requesting the current status is a no-op edge and is
// allowed.
func CheckSprint(from, to string) error {
	return check(types.EntitySprint, SprintTransitions(), from, to)
}

func check(entity string, edges []Transition, from, to string) error {
	if from == to {
		return nil
	}
	for _, t := range edges {
		if t.From == from && t.To == to {
			return nil
		}
	}
	return &types.TransitionError{Entity: entity, From: from, Requested: to}
}

// TaskTargetsFrom returns all statuses a task in the given status may move
// to, in table order.
func TaskTargetsFrom(status string) []string {
	return targetsFrom(TaskTransitions(), status)
}

// SprintTargetsFrom returns all statuses a sprint in the given status may
// move to, in table order.
func SprintTargetsFrom(status string) []string {
	return targetsFrom(SprintTransitions(), status)
}

func targetsFrom(edges []Transition, status string) []string {
	var targets []string
	for _, t := range edges {
		if t.From == status {
			targets = append(targets, t.To)
		}
	}
	return targets
}

// TransitionName returns a short verb for a task transition, for audit and
// log lines.
func TransitionName(from, to string) string {
	switch {
	case to == types.TaskStatusInProgress && from == types.TaskStatusTodo:
		return "start"
	case to == types.TaskStatusBlocked:
		return "block"
	case from == types.TaskStatusBlocked:
		return "unblock"
	case to == types.TaskStatusReview:
		return "review"
	case to == types.TaskStatusDone:
		return "finish"
	default:
		return from + " to " + to
	}
}
