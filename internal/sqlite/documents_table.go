package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/millbridge/foreman/internal/sections"
	"github.com/millbridge/foreman/pkg/types"
)

const documentColumns = "document_id, doc_type, title, content, status, version, created_at, updated_at"

// CreateDocument inserts a new document at version 1.
func (s *Store) CreateDocument(p types.DocumentParams, actor string) (*types.Document, error) {
	if p.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.DocType == "" {
		return nil, &types.ValidationError{Field: "doc_type", Reason: "must not be empty"}
	}
	if p.Status == "" {
		p.Status = types.DocumentStatusDraft
	}
	if !types.ValidDocumentStatus(p.Status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown document status %q", p.Status)}
	}

	ts := now()
	doc := types.Document{
		DocumentID: newID(),
		DocType:    p.DocType,
		Title:      p.Title,
		Content:    p.Content,
		Status:     p.Status,
		Version:    1,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	err := s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			doc.DocumentID, doc.DocType, doc.Title, doc.Content, doc.Status, doc.Version,
			formatTime(ts), formatTime(ts),
		)
		if err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create document", err)
	}

	s.recordChanges(types.EntityDocument, doc.DocumentID, actor, []types.FieldChange{
		{Field: "created", NewValue: doc.Title},
	})
	return &doc, nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(id string) (*types.Document, error) {
	var doc *types.Document
	err := s.readRetry(func() error {
		row := s.db.QueryRow("SELECT "+documentColumns+" FROM documents WHERE document_id = ?", id)
		d, err := scanDocument(row)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, s.fail("get document", err)
	}
	return doc, nil
}

// UpdateDocument applies a partial metadata update. The version counter
// never moves here.
func (s *Store) UpdateDocument(id string, u types.DocumentUpdate, actor string) (*types.Document, error) {
	if u.Title != nil && *u.Title == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if u.Status != nil && !types.ValidDocumentStatus(*u.Status) {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown document status %q", *u.Status)}
	}

	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+documentColumns+" FROM documents WHERE document_id = ?", id)
		prev, err := scanDocument(row)
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
		if u.DocType != nil {
			set("doc_type", prev.DocType, *u.DocType)
		}
		if u.Title != nil {
			set("title", prev.Title, *u.Title)
		}
		if u.Status != nil {
			set("status", prev.Status, *u.Status)
		}
		if len(sets) == 0 {
			return nil
		}

		sets = append(sets, "updated_at = ?")
		args = append(args, formatTime(now()), id)
		_, err = tx.Exec("UPDATE documents SET "+strings.Join(sets, ", ")+" WHERE document_id = ?", args...)
		if err != nil {
			return fmt.Errorf("updating document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("update document", err)
	}

	s.recordChanges(types.EntityDocument, id, actor, changes)
	return s.GetDocument(id)
}

// SaveNewVersion replaces the document body and advances the version
// counter by one. The outgoing content is captured in the change history,
// which is the only place prior versions remain retrievable.
func (s *Store) SaveNewVersion(id, content, actor string) (*types.Document, error) {
	var changes []types.FieldChange
	err := s.withTx(func(tx *sql.Tx) error {
		var prevContent string
		var prevVersion int64
		err := tx.QueryRow("SELECT content, version FROM documents WHERE document_id = ?", id).
			Scan(&prevContent, &prevVersion)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			"UPDATE documents SET content = ?, version = version + 1, updated_at = ? WHERE document_id = ?",
			content, formatTime(now()), id,
		)
		if err != nil {
			return fmt.Errorf("saving new version: %w", err)
		}
		changes = appendChange(changes, "content", prevContent, content)
		changes = appendChange(changes, "version",
			strconv.FormatInt(prevVersion, 10), strconv.FormatInt(prevVersion+1, 10))
		return nil
	})
	if err != nil {
		return nil, s.fail("save new version", err)
	}

	s.recordChanges(types.EntityDocument, id, actor, changes)
	return s.GetDocument(id)
}

// DeleteDocument removes a document. Links targeting the document and links
// where the document itself is the linked entity are removed in the same
// transaction.
func (s *Store) DeleteDocument(id, actor string) error {
	var title string
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow("SELECT title FROM documents WHERE document_id = ?", id).Scan(&title)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"DELETE FROM document_links WHERE document_id = ? OR (entity_type = ? AND entity_id = ?)",
			id, types.EntityDocument, id,
		); err != nil {
			return fmt.Errorf("deleting document links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM documents WHERE document_id = ?", id); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete document", err)
	}

	s.recordChanges(types.EntityDocument, id, actor, []types.FieldChange{
		{Field: "deleted", OldValue: title},
	})
	return nil
}

// ListDocuments returns documents matching the filter, ordered by creation
// time descending.
func (s *Store) ListDocuments(f types.DocumentFilter) ([]types.Document, error) {
	var fb filterBuilder
	fb.eq("doc_type", f.DocType)
	fb.in("status", f.Statuses)
	query := "SELECT " + documentColumns + " FROM documents" + fb.where() + " ORDER BY created_at DESC, rowid DESC"

	var docs []types.Document
	err := s.readRetry(func() error {
		rows, err := s.db.Query(query, fb.args...)
		if err != nil {
			return fmt.Errorf("querying documents: %w", err)
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, *d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail("list documents", err)
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return docs, nil
}

// Sections derives the section index from the document's current body. The
// index is a view recomputed on every call, never persisted.
func (s *Store) Sections(id string) ([]sections.Section, error) {
	doc, err := s.GetDocument(id)
	if err != nil {
		return nil, err
	}
	return sections.Parse(doc.Content), nil
}

// scanDocument hydrates one document row.
func scanDocument(row rowScanner) (*types.Document, error) {
	var d types.Document
	var createdAt, updatedAt string
	err := row.Scan(&d.DocumentID, &d.DocType, &d.Title, &d.Content, &d.Status, &d.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
