package types

import "time"

// EpicParams holds the caller-supplied fields for creating an epic. Status
// defaults to TODO and priority to MEDIUM when left empty. The epic number
// is never supplied: the allocator assigns the next free one.
type EpicParams struct {
	Title       string
	Description string
	Status      string
	Priority    string
}

// EpicUpdate holds a partial epic update. Nil fields are left unchanged;
// concurrent updates to the same row are last-write-wins.
type EpicUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

// TaskParams holds the caller-supplied fields for creating a task under an
// epic. The story number is never supplied: the allocator assigns the next
// free one within the epic.
type TaskParams struct {
	EpicNum         int64
	SprintID        *string
	Title           string
	Description     string
	Status          string
	Assignee        string
	Priority        string
	EstimatedEffort string
	ActualEffort    string
	Metadata        map[string]any
}

// TaskUpdate holds a partial task update. Nil fields are left unchanged.
// Status is deliberately absent: status moves only through
// UpdateTaskStatus so the transition tables always apply. SprintID set to
// an empty string detaches the task from its sprint.
type TaskUpdate struct {
	SprintID        *string
	Title           *string
	Description     *string
	Assignee        *string
	Priority        *string
	EstimatedEffort *string
	ActualEffort    *string
	Metadata        map[string]any
}

// SprintParams holds the caller-supplied fields for creating a sprint.
// Every sprint starts in PLANNING; status moves only through
// UpdateSprintStatus so the transition table always applies.
type SprintParams struct {
	Name      string
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
}

// SprintUpdate holds a partial sprint update to everything except status.
// Nil fields are left unchanged.
type SprintUpdate struct {
	Name      *string
	Goal      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// DocumentParams holds the caller-supplied fields for creating a document.
// Status defaults to DRAFT; every document starts at version 1.
type DocumentParams struct {
	DocType string
	Title   string
	Content string
	Status  string
}

// DocumentUpdate holds a partial metadata update. Content is deliberately
// absent: the body changes only through SaveNewVersion, which is the one
// operation allowed to advance the version counter.
type DocumentUpdate struct {
	DocType *string
	Title   *string
	Status  *string
}

// LinkParams holds the fields for attaching an entity to a document.
// Section and Purpose are optional; an empty section links the document as
// a whole.
type LinkParams struct {
	EntityType string
	EntityID   string
	DocumentID string
	Section    string
	Purpose    string
}
