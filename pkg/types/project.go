package types

import "time"

// Project is the singleton metadata row for a deployment. It is upserted,
// never duplicated: every save targets the same fixed row.
type Project struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
