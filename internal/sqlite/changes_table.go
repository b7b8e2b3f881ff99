package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/millbridge/foreman/pkg/types"
)

// recordChanges appends one audit record per changed field, in its own
// transaction after the primary mutation has committed. Audit is
// best-effort: a failure here never unwinds the primary write, but it is
// logged at Warn and handed to the configured OnAuditWarning hook rather
// than dropped.
func (s *Store) recordChanges(entityType, entityID, actor string, changes []types.FieldChange) {
	if len(changes) == 0 {
		return
	}

	ts := formatTime(now())
	err := s.withTx(func(tx *sql.Tx) error {
		for _, c := range changes {
			_, err := tx.Exec(
				`INSERT INTO change_records (change_id, entity_type, entity_id, field, old_value, new_value, actor, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				newID(), entityType, entityID, c.Field, c.OldValue, c.NewValue, actor, ts,
			)
			if err != nil {
				return fmt.Errorf("inserting change record for field %s: %w", c.Field, err)
			}
		}
		return nil
	})
	if err != nil {
		warn := fmt.Errorf("recording changes for %s %s: %w", entityType, entityID, err)
		s.log.Warn("audit append failed", "entity_type", entityType, "entity_id", entityID, "err", err)
		if s.cfg.OnAuditWarning != nil {
			s.cfg.OnAuditWarning(warn)
		}
	}
}

// appendChange adds a before/after pair to the pending change list when the
// value actually changed.
func appendChange(changes []types.FieldChange, field, oldValue, newValue string) []types.FieldChange {
	if oldValue == newValue {
		return changes
	}
	return append(changes, types.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
}

// History returns the audit records for one entity in chronological order.
func (s *Store) History(entityType, entityID string) ([]types.ChangeRecord, error) {
	if !types.ValidEntityKind(entityType) {
		return nil, &types.ValidationError{Field: "entity_type", Reason: fmt.Sprintf("unknown entity kind %q", entityType)}
	}

	var records []types.ChangeRecord
	err := s.readRetry(func() error {
		rows, err := s.db.Query(
			`SELECT change_id, entity_type, entity_id, field, old_value, new_value, actor, created_at
             FROM change_records
             WHERE entity_type = ? AND entity_id = ?
             ORDER BY created_at ASC, rowid ASC`,
			entityType, entityID,
		)
		if err != nil {
			return fmt.Errorf("querying change records: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			var r types.ChangeRecord
			var createdAt string
			if err := rows.Scan(&r.ChangeID, &r.EntityType, &r.EntityID, &r.Field, &r.OldValue, &r.NewValue, &r.Actor, &createdAt); err != nil {
				return fmt.Errorf("scanning change record: %w", err)
			}
			if r.CreatedAt, err = parseTime(createdAt); err != nil {
				return err
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("history", err)
	}
	if records == nil {
		records = []types.ChangeRecord{}
	}
	return records, nil
}
