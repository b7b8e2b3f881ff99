package types

// TaskFilter selects tasks. Zero-value fields are ignored; set fields
// compose with AND. Results are ordered by (epic_num, story_num) ascending.
type TaskFilter struct {
	// Statuses matches tasks whose status is any of the given values.
	Statuses []string

	// EpicNum scopes to one epic. Nil matches every epic.
	EpicNum *int64

	// SprintID scopes to one sprint.
	SprintID string

	Assignee string
	Priority string
}

// SprintFilter selects sprints. Results are ordered by creation time
// descending.
type SprintFilter struct {
	Statuses []string

	// NameContains matches sprints whose name contains the substring,
	// case-insensitively.
	NameContains string
}

// DocumentFilter selects documents. Results are ordered by creation time
// descending.
type DocumentFilter struct {
	DocType  string
	Statuses []string
}

// EpicFilter selects epics. Results are ordered by epic_num ascending.
type EpicFilter struct {
	Statuses []string
	Priority string
}
