package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/millbridge/foreman/internal/workflow"
	"github.com/millbridge/foreman/pkg/types"
)

const taskColumns = "task_id, epic_id, epic_num, sprint_id, story_num, title, description, status, assignee, priority, estimated_effort, actual_effort, metadata, created_at, updated_at"

// CreateTask allocates the next story number within the epic and inserts
// the task carrying it. Two concurrent creators under the same epic never
// receive the same story number: the loser of the insert race retries on
// the uniqueness violation.
func (s *Store) CreateTask(p types.TaskParams, actor string) (*types.Task, error) {
	if p.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.EpicNum <= 0 {
		return nil, &types.ValidationError{Field: "epic_num", Reason: "must reference an epic"}
	}
	if p.Status == "" {
		p.Status = types.TaskStatusTodo
	}
	if !types.ValidTaskStatus(p.Status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown task status %q", p.Status)}
	}
	if p.Priority == "" {
		p.Priority = types.PriorityMedium
	}
	if !types.ValidTaskPriority(p.Priority) {
		return nil, &types.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", p.Priority)}
	}

	metadataJSON, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, &types.ValidationError{Field: "metadata", Reason: err.Error()}
	}

	task := types.Task{
		TaskID:          newID(),
		EpicNum:         p.EpicNum,
		SprintID:        p.SprintID,
		Title:           p.Title,
		Description:     p.Description,
		Status:          p.Status,
		Assignee:        p.Assignee,
		Priority:        p.Priority,
		EstimatedEffort: p.EstimatedEffort,
		ActualEffort:    p.ActualEffort,
		Metadata:        p.Metadata,
	}

	err = s.allocate("create task", func(tx *sql.Tx) error {
		// Hard epic reference: refuse before any write when the epic is
		// missing, so no task ever dangles.
		err := tx.QueryRow("SELECT epic_id FROM epics WHERE epic_num = ?", p.EpicNum).Scan(&task.EpicID)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("epic %d: %w", p.EpicNum, types.ErrNotFound)
			}
			return fmt.Errorf("resolving epic %d: %w", p.EpicNum, err)
		}
		if p.SprintID != nil {
			var one int
			err := tx.QueryRow("SELECT 1 FROM sprints WHERE sprint_id = ?", *p.SprintID).Scan(&one)
			if err != nil {
				if err == sql.ErrNoRows {
					return fmt.Errorf("sprint %s: %w", *p.SprintID, types.ErrNotFound)
				}
				return fmt.Errorf("resolving sprint %s: %w", *p.SprintID, err)
			}
		}

		num, err := nextStoryNum(tx, p.EpicNum)
		if err != nil {
			return err
		}
		ts := now()
		task.StoryNum = num
		task.CreatedAt = ts
		task.UpdatedAt = ts
		_, err = tx.Exec(
			"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			task.TaskID, task.EpicID, task.EpicNum, nullableString(task.SprintID), task.StoryNum,
			task.Title, task.Description, task.Status, task.Assignee, task.Priority,
			task.EstimatedEffort, task.ActualEffort, metadataJSON,
			formatTime(ts), formatTime(ts),
		)
		if err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create task", err)
	}

	s.recordChanges(types.EntityTask, task.TaskID, actor, []types.FieldChange{
		{Field: "created", NewValue: fmt.Sprintf("story %d.%d", task.EpicNum, task.StoryNum)},
	})
	return &task, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(id string) (*types.Task, error) {
	var task *types.Task
	err := s.readRetry(func() error {
		row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id)
		t, err := scanTask(row)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, s.fail("get task", err)
	}
	return task, nil
}

// UpdateTask applies a partial update to everything except status.
// Concurrent updates to the same row are last-write-wins.
func (s *Store) UpdateTask(id string, u types.TaskUpdate, actor string) (*types.Task, error) {
	if u.Title != nil && *u.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if u.Priority != nil && !types.ValidTaskPriority(*u.Priority) {
		return nil, &types.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", *u.Priority)}
	}

	var metadataJSON string
	if u.Metadata != nil {
		var err error
		if metadataJSON, err = encodeMetadata(u.Metadata); err != nil {
			return nil, &types.ValidationError{Field: "metadata", Reason: err.Error()}
		}
	}

	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id)
		prev, err := scanTask(row)
		if err != nil {
			return err
		}

		var sets []string
		var args []any
		set := func(column, oldValue, newValue string) {
			sets = append(sets, column+" = ?")
			args = append(args, newValue)
			changes = appendChange(changes, column, oldValue, newValue)
		}
		if u.Title != nil {
			set("title", prev.Title, *u.Title)
		}
		if u.Description != nil {
			set("description", prev.Description, *u.Description)
		}
		if u.Assignee != nil {
			set("assignee", prev.Assignee, *u.Assignee)
		}
		if u.Priority != nil {
			set("priority", prev.Priority, *u.Priority)
		}
		if u.EstimatedEffort != nil {
			set("estimated_effort", prev.EstimatedEffort, *u.EstimatedEffort)
		}
		if u.ActualEffort != nil {
			set("actual_effort", prev.ActualEffort, *u.ActualEffort)
		}
		if u.SprintID != nil {
			if *u.SprintID == "" {
				sets = append(sets, "sprint_id = NULL")
				changes = appendChange(changes, "sprint_id", stringOrEmpty(prev.SprintID), "")
			} else {
				var one int
				err := tx.QueryRow("SELECT 1 FROM sprints WHERE sprint_id = ?", *u.SprintID).Scan(&one)
				if err != nil {
					if err == sql.ErrNoRows {
						return fmt.Errorf("sprint %s: %w", *u.SprintID, types.ErrNotFound)
					}
					return fmt.Errorf("resolving sprint %s: %w", *u.SprintID, err)
				}
				set("sprint_id", stringOrEmpty(prev.SprintID), *u.SprintID)
			}
		}
		if u.Metadata != nil {
			prevJSON, err := encodeMetadata(prev.Metadata)
			if err != nil {
				return err
			}
			set("metadata", prevJSON, metadataJSON)
		}
		if len(sets) == 0 {
			return nil
		}

		sets = append(sets, "updated_at = ?")
		args = append(args, formatTime(now()), id)
		_, err = tx.Exec("UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE task_id = ?", args...)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("update task", err)
	}

	s.recordChanges(types.EntityTask, id, actor, changes)
	return s.GetTask(id)
}

// UpdateTaskStatus moves a task along the workflow edges. A transition the
// tables do not allow is rejected without touching the row.
func (s *Store) UpdateTaskStatus(id, status, actor string) (*types.Task, error) {
	if !types.ValidTaskStatus(status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown task status %q", status)}
	}

	var changes []types.FieldChange
	var from string
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow("SELECT status FROM tasks WHERE task_id = ?", id).Scan(&from)
		if err != nil {
			return err
		}
		if err := workflow.CheckTask(from, status); err != nil {
			return err
		}
		if from == status {
			return nil
		}
		_, err = tx.Exec(
			"UPDATE tasks SET status = ?, updated_at = ? WHERE task_id = ?",
			status, formatTime(now()), id,
		)
		if err != nil {
			return fmt.Errorf("updating task status: %w", err)
		}
		changes = appendChange(changes, "status", from, status)
		return nil
	})
	if err != nil {
		return nil, s.fail("update task status", err)
	}

	if len(changes) > 0 {
		s.log.Info("task transition", "task", id, "transition", workflow.TransitionName(from, status), "actor", actor)
	}
	s.recordChanges(types.EntityTask, id, actor, changes)
	return s.GetTask(id)
}

// DeleteTask removes a task and cascade-removes its document links in the
// same transaction.
func (s *Store) DeleteTask(id, actor string) error {
	var title string
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow("SELECT title FROM tasks WHERE task_id = ?", id).Scan(&title)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"DELETE FROM document_links WHERE entity_type = ? AND entity_id = ?",
			types.EntityTask, id,
		); err != nil {
			return fmt.Errorf("deleting task links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM tasks WHERE task_id = ?", id); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete task", err)
	}

	s.recordChanges(types.EntityTask, id, actor, []types.FieldChange{
		{Field: "deleted", OldValue: title},
	})
	return nil
}

// ListTasks returns tasks matching the filter, ordered by
// (epic_num, story_num) ascending.
func (s *Store) ListTasks(f types.TaskFilter) ([]types.Task, error) {
	var fb filterBuilder
	fb.in("status", f.Statuses)
	fb.eqInt("epic_num", f.EpicNum)
	fb.eq("sprint_id", f.SprintID)
	fb.eq("assignee", f.Assignee)
	fb.eq("priority", f.Priority)
	query := "SELECT " + taskColumns + " FROM tasks" + fb.where() + " ORDER BY epic_num ASC, story_num ASC"

	var tasks []types.Task
	err := s.readRetry(func() error {
		rows, err := s.db.Query(query, fb.args...)
		if err != nil {
			return fmt.Errorf("querying tasks: %w", err)
		}
		defer rows.Close()

		tasks = tasks[:0]
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("list tasks", err)
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	return tasks, nil
}

// CountTasksByStatus returns the per-status task counts for one epic, the
// rollup behind per-epic progress reporting.
func (s *Store) CountTasksByStatus(epicNum int64) (map[string]int64, error) {
	counts := map[string]int64{}
	err := s.readRetry(func() error {
		rows, err := s.db.Query(
			"SELECT status, COUNT(*) FROM tasks WHERE epic_num = ? GROUP BY status",
			epicNum,
		)
		if err != nil {
			return fmt.Errorf("counting tasks: %w", err)
		}
		defer rows.Close()

		clear(counts)
		for rows.Next() {
			var status string
			var n int64
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("scanning count: %w", err)
			}
			counts[status] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("count tasks", err)
	}
	return counts, nil
}

// scanTask hydrates one task row.
func scanTask(row rowScanner) (*types.Task, error) {
	var t types.Task
	var sprintID sql.NullString
	var metadataJSON, createdAt, updatedAt string
	err := row.Scan(
		&t.TaskID, &t.EpicID, &t.EpicNum, &sprintID, &t.StoryNum,
		&t.Title, &t.Description, &t.Status, &t.Assignee, &t.Priority,
		&t.EstimatedEffort, &t.ActualEffort, &metadataJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sprintID.Valid {
		t.SprintID = &sprintID.String
	}
	if err := json.Unmarshal([]byte(metadataJSON), &t.Metadata); err != nil {
		return nil, fmt.Errorf("decoding task metadata: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeMetadata serializes free-form task metadata for the TEXT column.
// Nil maps encode as the empty object so the column is never NULL.
func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	return string(raw), nil
}

// nullableString converts an optional string to its SQL value.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// stringOrEmpty dereferences an optional string for change records.
func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
