package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/millbridge/foreman/internal/sections"
	"github.com/millbridge/foreman/pkg/types"
)

const linkColumns = "link_id, entity_type, entity_id, document_id, document_section, link_purpose, created_at, updated_at"

// Link upserts a document link. A second link on the same
// (entity_type, entity_id, document_id, section) four-tuple replaces the
// purpose in place, so the link table never grows duplicates. A non-empty
// section must resolve against the document's current section index.
func (s *Store) Link(p types.LinkParams, actor string) (*types.DocumentLink, error) {
	if !types.ValidEntityKind(p.EntityType) {
		return nil, &types.ValidationError{Field: "entity_type", Reason: fmt.Sprintf("unknown entity kind %q", p.EntityType)}
	}
	if p.EntityID == "" {
		return nil, &types.ValidationError{Field: "entity_id", Reason: "must not be empty"}
	}
	if p.DocumentID == "" {
		return nil, &types.ValidationError{Field: "document_id", Reason: "must not be empty"}
	}

	err := s.withTx(func(tx *sql.Tx) error {
		var content string
		err := tx.QueryRow("SELECT content FROM documents WHERE document_id = ?", p.DocumentID).Scan(&content)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("document %s: %w", p.DocumentID, types.ErrNotFound)
			}
			return fmt.Errorf("resolving document %s: %w", p.DocumentID, err)
		}
		if p.Section != "" && sections.Find(content, p.Section) == nil {
			return &types.ValidationError{
				Field:  "document_section",
				Reason: fmt.Sprintf("document has no section %q", p.Section),
			}
		}

		ts := formatTime(now())
		_, err = tx.Exec(
			`INSERT INTO document_links (`+linkColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(entity_type, entity_id, document_id, document_section) DO UPDATE SET
                 link_purpose = excluded.link_purpose,
                 updated_at = excluded.updated_at`,
			newID(), p.EntityType, p.EntityID, p.DocumentID, p.Section, p.Purpose, ts, ts,
		)
		if err != nil {
			return fmt.Errorf("upserting link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("link", err)
	}

	s.recordChanges(p.EntityType, p.EntityID, actor, []types.FieldChange{
		{Field: "linked_document", NewValue: linkRef(p.DocumentID, p.Section)},
	})
	return s.getLink(p.EntityType, p.EntityID, p.DocumentID, p.Section)
}

// Unlink removes a document link. Unlinking a link that does not exist
// succeeds and changes nothing: callers that crash and retry see the same
// outcome either way.
func (s *Store) Unlink(entityType, entityID, documentID, section, actor string) error {
	var removed int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`DELETE FROM document_links
             WHERE entity_type = ? AND entity_id = ? AND document_id = ? AND document_section = ?`,
			entityType, entityID, documentID, section,
		)
		if err != nil {
			return fmt.Errorf("deleting link: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return s.fail("unlink", err)
	}

	if removed > 0 {
		s.recordChanges(entityType, entityID, actor, []types.FieldChange{
			{Field: "unlinked_document", OldValue: linkRef(documentID, section)},
		})
	}
	return nil
}

// LinksForEntity returns every document link for one entity with the
// linked document's title and type joined in, ordered by creation time
// descending.
func (s *Store) LinksForEntity(entityType, entityID string) ([]types.EntityDocumentLink, error) {
	var links []types.EntityDocumentLink
	err := s.readRetry(func() error {
		rows, err := s.db.Query(
			`SELECT l.link_id, l.entity_type, l.entity_id, l.document_id, l.document_section,
                    l.link_purpose, l.created_at, l.updated_at, d.title, d.doc_type
             FROM document_links l
             JOIN documents d ON d.document_id = l.document_id
             WHERE l.entity_type = ? AND l.entity_id = ?
             ORDER BY l.created_at DESC, l.rowid DESC`,
			entityType, entityID,
		)
		if err != nil {
			return fmt.Errorf("querying entity links: %w", err)
		}
		defer rows.Close()

		links = links[:0]
		for rows.Next() {
			var el types.EntityDocumentLink
			var createdAt, updatedAt string
			err := rows.Scan(
				&el.LinkID, &el.EntityType, &el.EntityID, &el.DocumentID, &el.DocumentSection,
				&el.LinkPurpose, &createdAt, &updatedAt, &el.DocumentTitle, &el.DocumentType,
			)
			if err != nil {
				return fmt.Errorf("scanning entity link: %w", err)
			}
			if el.CreatedAt, err = parseTime(createdAt); err != nil {
				return err
			}
			if el.UpdatedAt, err = parseTime(updatedAt); err != nil {
				return err
			}
			links = append(links, el)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("links for entity", err)
	}
	if links == nil {
		links = []types.EntityDocumentLink{}
	}
	return links, nil
}

// EntitiesForDocument returns all entities linked to a document grouped by
// entity type, optionally scoped to one section.
func (s *Store) EntitiesForDocument(documentID, section string) (map[string][]types.LinkedEntity, error) {
	query := `SELECT entity_type, entity_id, document_section, link_purpose
              FROM document_links WHERE document_id = ?`
	args := []any{documentID}
	if section != "" {
		query += " AND document_section = ?"
		args = append(args, section)
	}
	query += " ORDER BY entity_type ASC, created_at ASC, rowid ASC"

	grouped := map[string][]types.LinkedEntity{}
	err := s.readRetry(func() error {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("querying document entities: %w", err)
		}
		defer rows.Close()

		clear(grouped)
		for rows.Next() {
			var entityType string
			var le types.LinkedEntity
			if err := rows.Scan(&entityType, &le.EntityID, &le.DocumentSection, &le.LinkPurpose); err != nil {
				return fmt.Errorf("scanning document entity: %w", err)
			}
			grouped[entityType] = append(grouped[entityType], le)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("entities for document", err)
	}
	return grouped, nil
}

// StaleSectionLinks returns the section-scoped links on a document whose
// section id no longer resolves against the current body. Heading rewording
// changes derived section ids, so callers surface these after saving a new
// version instead of letting links break silently.
func (s *Store) StaleSectionLinks(documentID string) ([]types.DocumentLink, error) {
	doc, err := s.GetDocument(documentID)
	if err != nil {
		return nil, err
	}
	index := map[string]bool{}
	for _, sec := range sections.Parse(doc.Content) {
		index[sec.ID] = true
	}

	var stale []types.DocumentLink
	err = s.readRetry(func() error {
		rows, err := s.db.Query(
			"SELECT "+linkColumns+" FROM document_links WHERE document_id = ? AND document_section != ''",
			documentID,
		)
		if err != nil {
			return fmt.Errorf("querying section links: %w", err)
		}
		defer rows.Close()

		stale = stale[:0]
		for rows.Next() {
			link, err := scanLink(rows)
			if err != nil {
				return err
			}
			if !index[link.DocumentSection] {
				stale = append(stale, *link)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("stale section links", err)
	}
	if stale == nil {
		stale = []types.DocumentLink{}
	}
	return stale, nil
}

// getLink fetches one link row by its four-tuple.
func (s *Store) getLink(entityType, entityID, documentID, section string) (*types.DocumentLink, error) {
	var link *types.DocumentLink
	err := s.readRetry(func() error {
		row := s.db.QueryRow(
			`SELECT `+linkColumns+` FROM document_links
             WHERE entity_type = ? AND entity_id = ? AND document_id = ? AND document_section = ?`,
			entityType, entityID, documentID, section,
		)
		l, err := scanLink(row)
		if err != nil {
			return err
		}
		link = l
		return nil
	})
	if err != nil {
		return nil, s.fail("get link", err)
	}
	return link, nil
}

// scanLink hydrates one link row.
func scanLink(row rowScanner) (*types.DocumentLink, error) {
	var l types.DocumentLink
	var createdAt, updatedAt string
	err := row.Scan(&l.LinkID, &l.EntityType, &l.EntityID, &l.DocumentID, &l.DocumentSection, &l.LinkPurpose, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// linkRef renders a document reference for change records.
func linkRef(documentID, section string) string {
	if section == "" {
		return documentID
	}
	return documentID + "#" + section
}
