package types

import "time"

// DocumentLink associates any entity with a document, optionally scoped to
// one derived section. Links are unique on (entity_type, entity_id,
// document_id, document_section); re-linking the same four-tuple replaces
// the purpose in place rather than duplicating the row.
type DocumentLink struct {
	LinkID     string `json:"link_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	DocumentID string `json:"document_id"`

	// DocumentSection is the section id within the document; empty links
	// the document as a whole.
	DocumentSection string `json:"document_section"`

	// LinkPurpose is a free-form note on why the link exists.
	LinkPurpose string `json:"link_purpose"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityDocumentLink is a DocumentLink joined with the linked document's
// title and type, as returned by LinksForEntity.
type EntityDocumentLink struct {
	DocumentLink
	DocumentTitle string `json:"document_title"`
	DocumentType  string `json:"document_type"`
}

// LinkedEntity is one entity reference attached to a document, as returned
// by EntitiesForDocument grouped under its entity type.
type LinkedEntity struct {
	EntityID        string `json:"entity_id"`
	DocumentSection string `json:"document_section"`
	LinkPurpose     string `json:"link_purpose"`
}
