package types

import "time"

// Document statuses.
const (
	DocumentStatusDraft    = "DRAFT"
	DocumentStatusInReview = "IN_REVIEW"
	DocumentStatusApproved = "APPROVED"
	DocumentStatusRejected = "REJECTED"
)

// validDocumentStatuses is the set of recognized document status values.
var validDocumentStatuses = map[string]bool{
	DocumentStatusDraft:    true,
	DocumentStatusInReview: true,
	DocumentStatusApproved: true,
	DocumentStatusRejected: true,
}

// Document is a versioned markdown artifact. Version only increases, and
// only through an explicit save-as-new-version operation; prior content
// survives in the change history, not as a row.
type Document struct {
	DocumentID string    `json:"document_id"`
	DocType    string    `json:"doc_type"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidDocumentStatus reports whether s is a recognized document status.
func ValidDocumentStatus(s string) bool {
	return validDocumentStatuses[s]
}
