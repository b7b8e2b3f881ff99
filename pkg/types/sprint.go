package types

import "time"

// Sprint statuses. At most one sprint may be ACTIVE at a time; the store
// enforces this with a partial unique index.
const (
	SprintStatusPlanning  = "PLANNING"
	SprintStatusActive    = "ACTIVE"
	SprintStatusCompleted = "COMPLETED"
	SprintStatusCancelled = "CANCELLED"
)

// validSprintStatuses is the set of recognized sprint status values.
var validSprintStatuses = map[string]bool{
	SprintStatusPlanning:  true,
	SprintStatusActive:    true,
	SprintStatusCompleted: true,
	SprintStatusCancelled: true,
}

// Sprint is a named, time-boxed scope grouping tasks toward a goal.
// Sprints have no delete path; CANCELLED acts as the soft archive.
type Sprint struct {
	SprintID  string     `json:"sprint_id"`
	Name      string     `json:"name"`
	Goal      string     `json:"goal"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ValidSprintStatus reports whether s is a recognized sprint status.
func ValidSprintStatus(s string) bool {
	return validSprintStatuses[s]
}
