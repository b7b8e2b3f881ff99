package types

import "time"

// Task statuses. DONE is terminal: no transition leaves it.
const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusBlocked    = "BLOCKED"
	TaskStatusReview     = "REVIEW"
	TaskStatusDone       = "DONE"
)

// validTaskStatuses is the set of recognized task status values.
var validTaskStatuses = map[string]bool{
	TaskStatusTodo:       true,
	TaskStatusInProgress: true,
	TaskStatusBlocked:    true,
	TaskStatusReview:     true,
	TaskStatusDone:       true,
}

// PriorityCritical extends the shared LOW/MEDIUM/HIGH scale for tasks.
const PriorityCritical = "CRITICAL"

// validTaskPriorities is the set of recognized task priority values.
var validTaskPriorities = map[string]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// Task is the smallest unit of trackable work. It belongs to an epic (hard
// reference by id, with the epic number denormalized for display and
// ordering) and optionally to a sprint. StoryNum is unique within the epic.
type Task struct {
	TaskID          string         `json:"task_id"`
	EpicID          string         `json:"epic_id"`
	EpicNum         int64          `json:"epic_num"`
	SprintID        *string        `json:"sprint_id"`
	StoryNum        int64          `json:"story_num"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	Assignee        string         `json:"assignee"`
	Priority        string         `json:"priority"`
	EstimatedEffort string         `json:"estimated_effort"`
	ActualEffort    string         `json:"actual_effort"`
	Metadata        map[string]any `json:"metadata"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ValidTaskStatus reports whether s is a recognized task status.
func ValidTaskStatus(s string) bool {
	return validTaskStatuses[s]
}

// ValidTaskPriority reports whether p is a recognized task priority.
func ValidTaskPriority(p string) bool {
	return validTaskPriorities[p]
}
