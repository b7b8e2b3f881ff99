package types

import "time"

// ChangeRecord is one append-only audit entry: a single field of a single
// entity changing value, attributed to the acting identity the caller
// supplied (an agent name, a user handle).
type ChangeRecord struct {
	ChangeID   string    `json:"change_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// FieldChange is a pending before/after pair collected during a mutation,
// recorded as one ChangeRecord after the primary write commits.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}
