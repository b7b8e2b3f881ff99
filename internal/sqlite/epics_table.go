package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/millbridge/foreman/pkg/types"
)

const epicColumns = "epic_id, epic_num, title, description, status, priority, created_at, updated_at"

// CreateEpic allocates the next epic number and inserts the epic carrying
// it, retrying the allocation when a concurrent creator races ahead.
func (s *Store) CreateEpic(p types.EpicParams, actor string) (*types.Epic, error) {
	if p.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Status == "" {
		p.Status = types.EpicStatusTodo
	}
	if !types.ValidEpicStatus(p.Status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown epic status %q", p.Status)}
	}
	if p.Priority == "" {
		p.Priority = types.PriorityMedium
	}
	if !types.ValidEpicPriority(p.Priority) {
		return nil, &types.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", p.Priority)}
	}

	epic := types.Epic{
		EpicID:      newID(),
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
	}

	err := s.allocate("create epic", func(tx *sql.Tx) error {
		num, err := nextEpicNum(tx)
		if err != nil {
			return err
		}
		ts := now()
		epic.EpicNum = num
		epic.CreatedAt = ts
		epic.UpdatedAt = ts
		_, err = tx.Exec(
			"INSERT INTO epics ("+epicColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			epic.EpicID, epic.EpicNum, epic.Title, epic.Description, epic.Status, epic.Priority,
			formatTime(ts), formatTime(ts),
		)
		if err != nil {
			return fmt.Errorf("inserting epic: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create epic", err)
	}

	s.recordChanges(types.EntityEpic, epic.EpicID, actor, []types.FieldChange{
		{Field: "created", NewValue: "epic " + strconv.FormatInt(epic.EpicNum, 10)},
	})
	return &epic, nil
}

// GetEpic retrieves an epic by id.
func (s *Store) GetEpic(id string) (*types.Epic, error) {
	return s.getEpicWhere("get epic", "epic_id = ?", id)
}

// GetEpicByNum retrieves an epic by its allocated number.
func (s *Store) GetEpicByNum(num int64) (*types.Epic, error) {
	return s.getEpicWhere("get epic by num", "epic_num = ?", num)
}

func (s *Store) getEpicWhere(op, where string, arg any) (*types.Epic, error) {
	var epic *types.Epic
	err := s.readRetry(func() error {
		row := s.db.QueryRow("SELECT "+epicColumns+" FROM epics WHERE "+where, arg)
		e, err := scanEpic(row)
		if err != nil {
			return err
		}
		epic = e
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return epic, nil
}

// UpdateEpic applies a partial update. Returns ErrNotFound when the id does
// not exist; the epic status vocabulary is validated but epics follow no
// transition machine.
func (s *Store) UpdateEpic(id string, u types.EpicUpdate, actor string) (*types.Epic, error) {
	if u.Status != nil && !types.ValidEpicStatus(*u.Status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown epic status %q", *u.Status)}
	}
	if u.Priority != nil && !types.ValidEpicPriority(*u.Priority) {
		return nil, &types.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", *u.Priority)}
	}
	if u.Title != nil && *u.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+epicColumns+" FROM epics WHERE epic_id = ?", id)
		prev, err := scanEpic(row)
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
		if u.Status != nil {
			set("status", prev.Status, *u.Status)
		}
		if u.Priority != nil {
			set("priority", prev.Priority, *u.Priority)
		}
		if len(sets) == 0 {
			return nil
		}

		sets = append(sets, "updated_at = ?")
		args = append(args, formatTime(now()), id)
		_, err = tx.Exec("UPDATE epics SET "+strings.Join(sets, ", ")+" WHERE epic_id = ?", args...)
		if err != nil {
			return fmt.Errorf("updating epic: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("update epic", err)
	}

	s.recordChanges(types.EntityEpic, id, actor, changes)
	return s.GetEpic(id)
}

// DeleteEpic removes an epic and cascade-removes its document links.
// Deletion is refused with ErrConflict while any task still references the
// epic, so task rows never dangle.
func (s *Store) DeleteEpic(id, actor string) error {
	var title string
	err := s.withTx(func(tx *sql.Tx) error {
		var epicNum int64
		err := tx.QueryRow("SELECT epic_num, title FROM epics WHERE epic_id = ?", id).Scan(&epicNum, &title)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.QueryRow("SELECT COUNT(*) FROM tasks WHERE epic_num = ?", epicNum).Scan(&n); err != nil {
			return fmt.Errorf("counting epic tasks: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("epic %d still has %d tasks: %w", epicNum, n, types.ErrConflict)
		}
		if _, err := tx.Exec(
			"DELETE FROM document_links WHERE entity_type = ? AND entity_id = ?",
			types.EntityEpic, id,
		); err != nil {
			return fmt.Errorf("deleting epic links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM epics WHERE epic_id = ?", id); err != nil {
			return fmt.Errorf("deleting epic: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete epic", err)
	}

	s.recordChanges(types.EntityEpic, id, actor, []types.FieldChange{
		{Field: "deleted", OldValue: title},
	})
	return nil
}

// ListEpics returns epics matching the filter, ordered by epic_num
// ascending.
func (s *Store) ListEpics(f types.EpicFilter) ([]types.Epic, error) {
	var fb filterBuilder
	fb.in("status", f.Statuses)
	fb.eq("priority", f.Priority)
	query := "SELECT " + epicColumns + " FROM epics" + fb.where() + " ORDER BY epic_num ASC"
	args := fb.args

	var epics []types.Epic
	err := s.readRetry(func() error {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("querying epics: %w", err)
		}
		defer rows.Close()

		epics = epics[:0]
		for rows.Next() {
			e, err := scanEpic(rows)
			if err != nil {
				return err
			}
			epics = append(epics, *e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("list epics", err)
	}
	if epics == nil {
		epics = []types.Epic{}
	}
	return epics, nil
}

// scanEpic hydrates one epic row.
func scanEpic(row rowScanner) (*types.Epic, error) {
	var e types.Epic
	var createdAt, updatedAt string
	err := row.Scan(&e.EpicID, &e.EpicNum, &e.Title, &e.Description, &e.Status, &e.Priority, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
