package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/millbridge/foreman/pkg/types"
)

// projectRowID is the fixed id of the singleton project row. Every save
// targets this row, so a deployment can never grow a second project.
const projectRowID = "project"

// SaveProject upserts the singleton project metadata row.
func (s *Store) SaveProject(name, description, actor string) (*types.Project, error) {
	if name == "" {
		return nil, &types.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	prev, err := s.GetProject()
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	ts := now()
	err = s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO projects (project_id, name, description, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(project_id) DO UPDATE SET
                 name = excluded.name,
                 description = excluded.description,
                 updated_at = excluded.updated_at`,
			projectRowID, name, description, formatTime(ts), formatTime(ts),
		)
		if err != nil {
			return fmt.Errorf("upserting project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("save project", err)
	}

	var changes []types.FieldChange
	if prev == nil {
		changes = append(changes, types.FieldChange{Field: "created", NewValue: name})
	} else {
		changes = appendChange(changes, "name", prev.Name, name)
		changes = appendChange(changes, "description", prev.Description, description)
	}
	s.recordChanges(types.EntityProject, projectRowID, actor, changes)

	return s.GetProject()
}

// GetProject returns the singleton project row.
func (s *Store) GetProject() (*types.Project, error) {
	var p types.Project
	err := s.readRetry(func() error {
		var createdAt, updatedAt string
		err := s.db.QueryRow(
			"SELECT project_id, name, description, created_at, updated_at FROM projects WHERE project_id = ?",
			projectRowID,
		).Scan(&p.ProjectID, &p.Name, &p.Description, &createdAt, &updatedAt)
		if err != nil {
			return err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		p.UpdatedAt, err = parseTime(updatedAt)
		return err
	})
	if err != nil {
		return nil, s.fail("get project", err)
	}
	return &p, nil
}
