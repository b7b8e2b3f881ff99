package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/millbridge/foreman/internal/workflow"
	"github.com/millbridge/foreman/pkg/types"
)

const sprintColumns = "sprint_id, name, goal, start_date, end_date, status, created_at, updated_at"

// CreateSprint inserts a new sprint in PLANNING.
func (s *Store) CreateSprint(p types.SprintParams, actor string) (*types.Sprint, error) {
	if p.Name == "" {
		return nil, &types.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, &types.ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}

	ts := now()
	sprint := types.Sprint{
		SprintID:  newID(),
		Name:      p.Name,
		Goal:      p.Goal,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    types.SprintStatusPlanning,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err := s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO sprints ("+sprintColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			sprint.SprintID, sprint.Name, sprint.Goal,
			formatNullableTime(sprint.StartDate), formatNullableTime(sprint.EndDate),
			sprint.Status, formatTime(ts), formatTime(ts),
		)
		if err != nil {
			return fmt.Errorf("inserting sprint: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create sprint", err)
	}

	s.recordChanges(types.EntitySprint, sprint.SprintID, actor, []types.FieldChange{
		{Field: "created", NewValue: sprint.Name},
	})
	return &sprint, nil
}

// GetSprint retrieves a sprint by id.
func (s *Store) GetSprint(id string) (*types.Sprint, error) {
	var sprint *types.Sprint
	err := s.readRetry(func() error {
		row := s.db.QueryRow("SELECT "+sprintColumns+" FROM sprints WHERE sprint_id = ?", id)
		sp, err := scanSprint(row)
		if err != nil {
			return err
		}
		sprint = sp
		return nil
	})
	if err != nil {
		return nil, s.fail("get sprint", err)
	}
	return sprint, nil
}

// ActiveSprint returns the single ACTIVE sprint, or ErrNotFound when none
// is active. The partial unique index guarantees at most one row can match.
func (s *Store) ActiveSprint() (*types.Sprint, error) {
	var sprint *types.Sprint
	err := s.readRetry(func() error {
		row := s.db.QueryRow(
			"SELECT "+sprintColumns+" FROM sprints WHERE status = ?",
			types.SprintStatusActive,
		)
		sp, err := scanSprint(row)
		if err != nil {
			return err
		}
		sprint = sp
		return nil
	})
	if err != nil {
		return nil, s.fail("active sprint", err)
	}
	return sprint, nil
}

// UpdateSprint applies a partial update to everything except status.
func (s *Store) UpdateSprint(id string, u types.SprintUpdate, actor string) (*types.Sprint, error) {
	if u.Name != nil && *u.Name == "" {
		return nil, &types.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+sprintColumns+" FROM sprints WHERE sprint_id = ?", id)
		prev, err := scanSprint(row)
		if err != nil {
			return err
		}

		var sets []string
		var args []any
		set := func(column, oldValue, newValue string, arg any) {
			sets = append(sets, column+" = ?")
			args = append(args, arg)
			changes = appendChange(changes, column, oldValue, newValue)
		}
		if u.Name != nil {
			set("name", prev.Name, *u.Name, *u.Name)
		}
		if u.Goal != nil {
			set("goal", prev.Goal, *u.Goal, *u.Goal)
		}
		if u.StartDate != nil {
			set("start_date", timeOrEmpty(prev.StartDate), formatTime(*u.StartDate), formatTime(*u.StartDate))
		}
		if u.EndDate != nil {
			set("end_date", timeOrEmpty(prev.EndDate), formatTime(*u.EndDate), formatTime(*u.EndDate))
		}
		if len(sets) == 0 {
			return nil
		}

		sets = append(sets, "updated_at = ?")
		args = append(args, formatTime(now()), id)
		_, err = tx.Exec("UPDATE sprints SET "+strings.Join(sets, ", ")+" WHERE sprint_id = ?", args...)
		if err != nil {
			return fmt.Errorf("updating sprint: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("update sprint", err)
	}

	s.recordChanges(types.EntitySprint, id, actor, changes)
	return s.GetSprint(id)
}

// UpdateSprintStatus moves a sprint along the workflow edges. Activating a
// sprint while another is ACTIVE fails with ErrConflict: the partial unique
// index admits one ACTIVE row, so the single-active invariant holds even
// against racing processes.
func (s *Store) UpdateSprintStatus(id, status, actor string) (*types.Sprint, error) {
	if !types.ValidSprintStatus(status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown sprint status %q", status)}
	}

	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow("SELECT status FROM sprints WHERE sprint_id = ?", id).Scan(&current)
		if err != nil {
			return err
		}
		if err := workflow.CheckSprint(current, status); err != nil {
			return err
		}
		if current == status {
			return nil
		}
		_, err = tx.Exec(
			"UPDATE sprints SET status = ?, updated_at = ? WHERE sprint_id = ?",
			status, formatTime(now()), id,
		)
		if err != nil {
			return fmt.Errorf("updating sprint status: %w", err)
		}
		changes = appendChange(changes, "status", current, status)
		return nil
	})
	if err != nil {
		return nil, s.fail("update sprint status", err)
	}

	s.recordChanges(types.EntitySprint, id, actor, changes)
	return s.GetSprint(id)
}

// DeleteSprint removes a sprint, detaching its tasks and cascade-removing
// its document links in the same transaction. Sprint membership is
// optional, so detached tasks keep their status and history.
func (s *Store) DeleteSprint(id, actor string) error {
	var name string
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow("SELECT name FROM sprints WHERE sprint_id = ?", id).Scan(&name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"UPDATE tasks SET sprint_id = NULL, updated_at = ? WHERE sprint_id = ?",
			formatTime(now()), id,
		); err != nil {
			return fmt.Errorf("detaching sprint tasks: %w", err)
		}
		if _, err := tx.Exec(
			"DELETE FROM document_links WHERE entity_type = ? AND entity_id = ?",
			types.EntitySprint, id,
		); err != nil {
			return fmt.Errorf("deleting sprint links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM sprints WHERE sprint_id = ?", id); err != nil {
			return fmt.Errorf("deleting sprint: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete sprint", err)
	}

	s.recordChanges(types.EntitySprint, id, actor, []types.FieldChange{
		{Field: "deleted", OldValue: name},
	})
	return nil
}

// ListSprints returns sprints matching the filter, ordered by creation time
// descending.
func (s *Store) ListSprints(f types.SprintFilter) ([]types.Sprint, error) {
	var fb filterBuilder
	fb.in("status", f.Statuses)
	fb.containsFold("name", f.NameContains)
	query := "SELECT " + sprintColumns + " FROM sprints" + fb.where() + " ORDER BY created_at DESC, rowid DESC"

	var sprints []types.Sprint
	err := s.readRetry(func() error {
		rows, err := s.db.Query(query, fb.args...)
		if err != nil {
			return fmt.Errorf("querying sprints: %w", err)
		}
		defer rows.Close()

		sprints = sprints[:0]
		for rows.Next() {
			sp, err := scanSprint(rows)
			if err != nil {
				return err
			}
			sprints = append(sprints, *sp)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("list sprints", err)
	}
	if sprints == nil {
		sprints = []types.Sprint{}
	}
	return sprints, nil
}

// scanSprint hydrates one sprint row.
func scanSprint(row rowScanner) (*types.Sprint, error) {
	var sp types.Sprint
	var startDate, endDate sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&sp.SprintID, &sp.Name, &sp.Goal, &startDate, &endDate, &sp.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if sp.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, err
	}
	if sp.EndDate, err = parseNullableTime(endDate); err != nil {
		return nil, err
	}
	if sp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &sp, nil
}

// timeOrEmpty formats an optional timestamp for change records.
func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
