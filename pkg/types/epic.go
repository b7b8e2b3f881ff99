package types

import "time"

// Epic statuses. Epics have no delete path; DONE acts as the soft archive.
const (
	EpicStatusTodo       = "TODO"
	EpicStatusInProgress = "IN_PROGRESS"
	EpicStatusDone       = "DONE"
)

// validEpicStatuses is the set of recognized epic status values.
var validEpicStatuses = map[string]bool{
	EpicStatusTodo:       true,
	EpicStatusInProgress: true,
	EpicStatusDone:       true,
}

// Epic priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// validEpicPriorities is the set of recognized epic priority values.
var validEpicPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// Epic is a large unit of work grouping tasks under one allocated number.
type Epic struct {
	EpicID      string    `json:"epic_id"`
	EpicNum     int64     `json:"epic_num"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidEpicStatus reports whether s is a recognized epic status.
func ValidEpicStatus(s string) bool {
	return validEpicStatuses[s]
}

// ValidEpicPriority reports whether p is a recognized epic priority.
func ValidEpicPriority(p string) bool {
	return validEpicPriorities[p]
}
