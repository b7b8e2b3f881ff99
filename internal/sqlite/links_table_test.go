package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millbridge/foreman/pkg/types"
)

// seedLinkFixture creates an epic and a sectioned document for link tests.
func seedLinkFixture(t *testing.T, s *Store) (*types.Epic, *types.Document) {
	t.Helper()
	epic, err := s.CreateEpic(types.EpicParams{Title: "Linkable epic"}, "tester")
	require.NoError(t, err)
	doc, err := s.CreateDocument(types.DocumentParams{
		DocType: "design",
		Title:   "Linkable doc",
		Content: "# Overview\nintro\n## Details\nmore",
	}, "tester")
	require.NoError(t, err)
	return epic, doc
}

func TestLink(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, s *Store)
	}{
		{
			name: "whole document link",
			check: func(t *testing.T, s *Store) {
				epic, doc := seedLinkFixture(t, s)
				link, err := s.Link(types.LinkParams{
					EntityType: types.EntityEpic,
					EntityID:   epic.EpicID,
					DocumentID: doc.DocumentID,
					Purpose:    "design reference",
				}, "tester")
				require.NoError(t, err)

				assert.Equal(t, "", link.DocumentSection)
				assert.Equal(t, "design reference", link.LinkPurpose)
			},
		},
		{
			name: "section link resolves against the body",
			check: func(t *testing.T, s *Store) {
				epic, doc := seedLinkFixture(t, s)
				link, err := s.Link(types.LinkParams{
					EntityType: types.EntityEpic,
					EntityID:   epic.EpicID,
					DocumentID: doc.DocumentID,
					Section:    "details",
				}, "tester")
				require.NoError(t, err)
				assert.Equal(t, "details", link.DocumentSection)
			},
		},
		{
			name: "unknown section rejected",
			check: func(t *testing.T, s *Store) {
				epic, doc := seedLinkFixture(t, s)
				_, err := s.Link(types.LinkParams{
					EntityType: types.EntityEpic,
					EntityID:   epic.EpicID,
					DocumentID: doc.DocumentID,
					Section:    "missing-section",
				}, "tester")
				assert.ErrorIs(t, err, types.ErrInvalid)
			},
		},
		{
			name: "missing document rejected",
			check: func(t *testing.T, s *Store) {
				epic, _ := seedLinkFixture(t, s)
				_, err := s.Link(types.LinkParams{
					EntityType: types.EntityEpic,
					EntityID:   epic.EpicID,
					DocumentID: "missing",
				}, "tester")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "unknown entity kind rejected",
			check: func(t *testing.T, s *Store) {
				_, doc := seedLinkFixture(t, s)
				_, err := s.Link(types.LinkParams{
					EntityType: "milestone",
					EntityID:   "x",
					DocumentID: doc.DocumentID,
				}, "tester")
				assert.ErrorIs(t, err, types.ErrInvalid)
			},
		},
		{
			name: "relinking replaces the purpose in place",
			check: func(t *testing.T, s *Store) {
				epic, doc := seedLinkFixture(t, s)
				params := types.LinkParams{
					EntityType: types.EntityEpic,
					EntityID:   epic.EpicID,
					DocumentID: doc.DocumentID,
					Purpose:    "first purpose",
				}
				_, err := s.Link(params, "tester")
				require.NoError(t, err)

				params.Purpose = "second purpose"
				link, err := s.Link(params, "tester")
				require.NoError(t, err)
				assert.Equal(t, "second purpose", link.LinkPurpose)

				links, err := s.LinksForEntity(types.EntityEpic, epic.EpicID)
				require.NoError(t, err)
				assert.Len(t, links, 1)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupStore(t))
		})
	}
}

func TestUnlink(t *testing.T) {
	s := setupStore(t)
	epic, doc := seedLinkFixture(t, s)
	_, err := s.Link(types.LinkParams{
		EntityType: types.EntityEpic,
		EntityID:   epic.EpicID,
		DocumentID: doc.DocumentID,
	}, "tester")
	require.NoError(t, err)

	require.NoError(t, s.Unlink(types.EntityEpic, epic.EpicID, doc.DocumentID, "", "tester"))

	links, err := s.LinksForEntity(types.EntityEpic, epic.EpicID)
	require.NoError(t, err)
	assert.Empty(t, links)

	// Unlinking a link that does not exist succeeds and changes nothing.
	require.NoError(t, s.Unlink(types.EntityEpic, epic.EpicID, doc.DocumentID, "", "tester"))
}

func TestLinksForEntity(t *testing.T) {
	s := setupStore(t)
	epic, doc := seedLinkFixture(t, s)
	_, err := s.Link(types.LinkParams{
		EntityType: types.EntityEpic,
		EntityID:   epic.EpicID,
		DocumentID: doc.DocumentID,
		Section:    "overview",
	}, "tester")
	require.NoError(t, err)

	links, err := s.LinksForEntity(types.EntityEpic, epic.EpicID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	// The linked document's title and type come joined in.
	assert.Equal(t, "Linkable doc", links[0].DocumentTitle)
	assert.Equal(t, "design", links[0].DocumentType)
	assert.Equal(t, "overview", links[0].DocumentSection)

	none, err := s.LinksForEntity(types.EntityTask, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEntitiesForDocument(t *testing.T) {
	s := setupStore(t)
	epic, doc := seedLinkFixture(t, s)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Linked task"}, "tester")
	require.NoError(t, err)

	_, err = s.Link(types.LinkParams{EntityType: types.EntityEpic, EntityID: epic.EpicID, DocumentID: doc.DocumentID}, "tester")
	require.NoError(t, err)
	_, err = s.Link(types.LinkParams{EntityType: types.EntityTask, EntityID: task.TaskID, DocumentID: doc.DocumentID, Section: "details"}, "tester")
	require.NoError(t, err)

	grouped, err := s.EntitiesForDocument(doc.DocumentID, "")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[types.EntityEpic], 1)
	assert.Equal(t, epic.EpicID, grouped[types.EntityEpic][0].EntityID)
	require.Len(t, grouped[types.EntityTask], 1)
	assert.Equal(t, "details", grouped[types.EntityTask][0].DocumentSection)

	scoped, err := s.EntitiesForDocument(doc.DocumentID, "details")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, task.TaskID, scoped[types.EntityTask][0].EntityID)
}

func TestStaleSectionLinks(t *testing.T) {
	s := setupStore(t)
	epic, doc := seedLinkFixture(t, s)
	_, err := s.Link(types.LinkParams{
		EntityType: types.EntityEpic,
		EntityID:   epic.EpicID,
		DocumentID: doc.DocumentID,
		Section:    "details",
	}, "tester")
	require.NoError(t, err)
	_, err = s.Link(types.LinkParams{
		EntityType: types.EntityEpic,
		EntityID:   epic.EpicID,
		DocumentID: doc.DocumentID,
	}, "tester")
	require.NoError(t, err)

	stale, err := s.StaleSectionLinks(doc.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, stale)

	// Rewording the heading changes the derived section id.
	_, err = s.SaveNewVersion(doc.DocumentID, "# Overview\nintro\n## Specifics\nmore", "tester")
	require.NoError(t, err)

	stale, err = s.StaleSectionLinks(doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "details", stale[0].DocumentSection)
}
