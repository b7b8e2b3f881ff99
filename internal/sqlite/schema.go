package sqlite

// Schema DDL. Every statement is idempotent so the schema can be applied by
// whichever client process opens the database first, and re-applied by every
// later open.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createEpics = `CREATE TABLE IF NOT EXISTS epics (
    epic_id TEXT PRIMARY KEY,
    epic_num INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    priority TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createSprints = `CREATE TABLE IF NOT EXISTS sprints (
    sprint_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    goal TEXT NOT NULL DEFAULT '',
    start_date TEXT,
    end_date TEXT,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    epic_id TEXT NOT NULL,
    epic_num INTEGER NOT NULL,
    sprint_id TEXT,
    story_num INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    assignee TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL,
    estimated_effort TEXT NOT NULL DEFAULT '',
    actual_effort TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (epic_id) REFERENCES epics(epic_id),
    FOREIGN KEY (sprint_id) REFERENCES sprints(sprint_id)
);`

	createDocuments = `CREATE TABLE IF NOT EXISTS documents (
    document_id TEXT PRIMARY KEY,
    doc_type TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	// document_section is '' for whole-document links: NULL would defeat
	// the four-tuple unique index.
	createDocumentLinks = `CREATE TABLE IF NOT EXISTS document_links (
    link_id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    document_section TEXT NOT NULL DEFAULT '',
    link_purpose TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(document_id) ON DELETE CASCADE
);`

	createChangeRecords = `CREATE TABLE IF NOT EXISTS change_records (
    change_id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    field TEXT NOT NULL,
    old_value TEXT NOT NULL DEFAULT '',
    new_value TEXT NOT NULL DEFAULT '',
    actor TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`
)

// Index DDL. The unique indexes carry the store's concurrency story: racing
// allocators surface as constraint violations here, and the partial index on
// sprints guarantees at most one ACTIVE row.
const (
	idxEpicsNum         = `CREATE UNIQUE INDEX IF NOT EXISTS idx_epics_num ON epics(epic_num);`
	idxTasksStory       = `CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_story ON tasks(epic_num, story_num);`
	idxTasksEpic        = `CREATE INDEX IF NOT EXISTS idx_tasks_epic ON tasks(epic_id);`
	idxTasksSprint      = `CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);`
	idxTasksStatus      = `CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`
	idxSprintsOneActive = `CREATE UNIQUE INDEX IF NOT EXISTS idx_sprints_one_active ON sprints(status) WHERE status = 'ACTIVE';`
	idxLinksUnique      = `CREATE UNIQUE INDEX IF NOT EXISTS idx_links_unique ON document_links(entity_type, entity_id, document_id, document_section);`
	idxLinksEntity      = `CREATE INDEX IF NOT EXISTS idx_links_entity ON document_links(entity_type, entity_id);`
	idxLinksDocument    = `CREATE INDEX IF NOT EXISTS idx_links_document ON document_links(document_id);`
	idxChangesEntity    = `CREATE INDEX IF NOT EXISTS idx_changes_entity ON change_records(entity_type, entity_id);`
	idxDocumentsCreated = `CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createProjects,
	createEpics,
	createSprints,
	createTasks,
	createDocuments,
	createDocumentLinks,
	createChangeRecords,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEpicsNum,
	idxTasksStory,
	idxTasksEpic,
	idxTasksSprint,
	idxTasksStatus,
	idxSprintsOneActive,
	idxLinksUnique,
	idxLinksEntity,
	idxLinksDocument,
	idxChangesEntity,
	idxDocumentsCreated,
}

// applySchema creates all tables and indexes that do not already exist.
func (s *Store) applySchema() error {
	for _, ddl := range schemaDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return err
		}
	}
	for _, ddl := range indexDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
