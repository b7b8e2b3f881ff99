package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/millbridge/foreman/pkg/types"
)

// seedEpic creates one epic and returns it, for tests that need a parent.
func seedEpic(t *testing.T, s *Store) *types.Epic {
	t.Helper()
	epic, err := s.CreateEpic(types.EpicParams{Title: "Parent epic"}, "tester")
	require.NoError(t, err)
	return epic
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, s *Store)
	}{
		{
			name: "defaults applied",
			check: func(t *testing.T, s *Store) {
				epic := seedEpic(t, s)
				task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "First task"}, "tester")
				require.NoError(t, err)

				assert.Equal(t, epic.EpicID, task.EpicID)
				assert.Equal(t, int64(1), task.StoryNum)
				assert.Equal(t, types.TaskStatusTodo, task.Status)
				assert.Equal(t, types.PriorityMedium, task.Priority)
				assert.Nil(t, task.SprintID)
			},
		},
		{
			name: "story numbers scope to the epic",
			check: func(t *testing.T, s *Store) {
				first := seedEpic(t, s)
				second, err := s.CreateEpic(types.EpicParams{Title: "Other epic"}, "tester")
				require.NoError(t, err)

				a, err := s.CreateTask(types.TaskParams{EpicNum: first.EpicNum, Title: "A"}, "tester")
				require.NoError(t, err)
				b, err := s.CreateTask(types.TaskParams{EpicNum: first.EpicNum, Title: "B"}, "tester")
				require.NoError(t, err)
				c, err := s.CreateTask(types.TaskParams{EpicNum: second.EpicNum, Title: "C"}, "tester")
				require.NoError(t, err)

				assert.Equal(t, int64(1), a.StoryNum)
				assert.Equal(t, int64(2), b.StoryNum)
				assert.Equal(t, int64(1), c.StoryNum)
			},
		},
		{
			name: "missing epic rejected before any write",
			check: func(t *testing.T, s *Store) {
				_, err := s.CreateTask(types.TaskParams{EpicNum: 42, Title: "Orphan"}, "tester")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "missing sprint rejected",
			check: func(t *testing.T, s *Store) {
				epic := seedEpic(t, s)
				sprintID := "missing"
				_, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "T", SprintID: &sprintID}, "tester")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "empty title rejected",
			check: func(t *testing.T, s *Store) {
				epic := seedEpic(t, s)
				_, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum}, "tester")
				assert.ErrorIs(t, err, types.ErrInvalid)
			},
		},
		{
			name: "critical priority accepted",
			check: func(t *testing.T, s *Store) {
				epic := seedEpic(t, s)
				task, err := s.CreateTask(types.TaskParams{
					EpicNum:  epic.EpicNum,
					Title:    "Hotfix",
					Priority: types.PriorityCritical,
				}, "tester")
				require.NoError(t, err)
				assert.Equal(t, types.PriorityCritical, task.Priority)
			},
		},
		{
			name: "metadata round-trips",
			check: func(t *testing.T, s *Store) {
				epic := seedEpic(t, s)
				task, err := s.CreateTask(types.TaskParams{
					EpicNum:  epic.EpicNum,
					Title:    "Tagged",
					Metadata: map[string]any{"component": "storage", "points": float64(3)},
				}, "tester")
				require.NoError(t, err)

				got, err := s.GetTask(task.TaskID)
				require.NoError(t, err)
				assert.Equal(t, "storage", got.Metadata["component"])
				assert.Equal(t, float64(3), got.Metadata["points"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupStore(t))
		})
	}
}

func TestConcurrentStoryNumbersAreDistinct(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)

	const n = 8
	var g errgroup.Group
	nums := make(chan int64, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Racing task"}, "tester")
			if err != nil {
				return err
			}
			nums <- task.StoryNum
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(nums)

	seen := map[int64]bool{}
	for num := range nums {
		assert.False(t, seen[num], "story number %d allocated twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestUpdateTask(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Before"}, "tester")
	require.NoError(t, err)

	title := "After"
	assignee := "dev-1"
	got, err := s.UpdateTask(task.TaskID, types.TaskUpdate{Title: &title, Assignee: &assignee}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "dev-1", got.Assignee)
	assert.Equal(t, task.StoryNum, got.StoryNum)

	_, err = s.UpdateTask("missing", types.TaskUpdate{Title: &title}, "tester")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTaskSprintAttachDetach(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	sprint, err := s.CreateSprint(types.SprintParams{Name: "Sprint 1"}, "tester")
	require.NoError(t, err)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Movable"}, "tester")
	require.NoError(t, err)

	got, err := s.UpdateTask(task.TaskID, types.TaskUpdate{SprintID: &sprint.SprintID}, "tester")
	require.NoError(t, err)
	require.NotNil(t, got.SprintID)
	assert.Equal(t, sprint.SprintID, *got.SprintID)

	missing := "missing"
	_, err = s.UpdateTask(task.TaskID, types.TaskUpdate{SprintID: &missing}, "tester")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Empty string detaches.
	detach := ""
	got, err = s.UpdateTask(task.TaskID, types.TaskUpdate{SprintID: &detach}, "tester")
	require.NoError(t, err)
	assert.Nil(t, got.SprintID)
}

func TestUpdateTaskStatus(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Flowing"}, "tester")
	require.NoError(t, err)

	got, err := s.UpdateTaskStatus(task.TaskID, types.TaskStatusInProgress, "tester")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusInProgress, got.Status)

	// Skipping review is not an edge.
	_, err = s.UpdateTaskStatus(task.TaskID, types.TaskStatusDone, "tester")
	assert.ErrorIs(t, err, types.ErrConflict)

	// Rejected transition leaves the row untouched.
	got, err = s.GetTask(task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusInProgress, got.Status)

	// Requesting the current status is a no-op, not a conflict.
	got, err = s.UpdateTaskStatus(task.TaskID, types.TaskStatusInProgress, "tester")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusInProgress, got.Status)

	_, err = s.UpdateTaskStatus(task.TaskID, "STARTED", "tester")
	assert.ErrorIs(t, err, types.ErrInvalid)

	_, err = s.UpdateTaskStatus("missing", types.TaskStatusBlocked, "tester")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBlockedTaskCannotFinishDirectly(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Stuck"}, "tester")
	require.NoError(t, err)

	_, err = s.UpdateTaskStatus(task.TaskID, types.TaskStatusBlocked, "tester")
	require.NoError(t, err)

	_, err = s.UpdateTaskStatus(task.TaskID, types.TaskStatusDone, "tester")
	assert.ErrorIs(t, err, types.ErrConflict)

	// The unblock path goes back through the regular flow.
	for _, status := range []string{
		types.TaskStatusInProgress,
		types.TaskStatusReview,
		types.TaskStatusDone,
	} {
		_, err = s.UpdateTaskStatus(task.TaskID, status, "tester")
		require.NoError(t, err)
	}

	// DONE is terminal.
	_, err = s.UpdateTaskStatus(task.TaskID, types.TaskStatusTodo, "tester")
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestDeleteTask(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	task, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Doomed"}, "tester")
	require.NoError(t, err)
	doc, err := s.CreateDocument(types.DocumentParams{DocType: "spec", Title: "Linked doc"}, "tester")
	require.NoError(t, err)
	_, err = s.Link(types.LinkParams{EntityType: types.EntityTask, EntityID: task.TaskID, DocumentID: doc.DocumentID}, "tester")
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(task.TaskID, "tester"))

	_, err = s.GetTask(task.TaskID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	links, err := s.LinksForEntity(types.EntityTask, task.TaskID)
	require.NoError(t, err)
	assert.Empty(t, links)

	assert.ErrorIs(t, s.DeleteTask(task.TaskID, "tester"), types.ErrNotFound)
}

func TestListTasks(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)
	other, err := s.CreateEpic(types.EpicParams{Title: "Other epic"}, "tester")
	require.NoError(t, err)

	_, err = s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "A", Assignee: "dev-1"}, "tester")
	require.NoError(t, err)
	b, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "B", Assignee: "dev-2"}, "tester")
	require.NoError(t, err)
	_, err = s.CreateTask(types.TaskParams{EpicNum: other.EpicNum, Title: "C", Assignee: "dev-1"}, "tester")
	require.NoError(t, err)
	_, err = s.UpdateTaskStatus(b.TaskID, types.TaskStatusInProgress, "tester")
	require.NoError(t, err)

	all, err := s.ListTasks(types.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by (epic, story) ascending.
	assert.Equal(t, "A", all[0].Title)
	assert.Equal(t, "B", all[1].Title)
	assert.Equal(t, "C", all[2].Title)

	scoped, err := s.ListTasks(types.TaskFilter{EpicNum: &epic.EpicNum})
	require.NoError(t, err)
	assert.Len(t, scoped, 2)

	inProgress, err := s.ListTasks(types.TaskFilter{Statuses: []string{types.TaskStatusInProgress}})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "B", inProgress[0].Title)

	combined, err := s.ListTasks(types.TaskFilter{EpicNum: &epic.EpicNum, Assignee: "dev-1"})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "A", combined[0].Title)
}

func TestCountTasksByStatus(t *testing.T) {
	s := setupStore(t)
	epic := seedEpic(t, s)

	for i := 0; i < 3; i++ {
		_, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "T"}, "tester")
		require.NoError(t, err)
	}
	started, err := s.CreateTask(types.TaskParams{EpicNum: epic.EpicNum, Title: "Started"}, "tester")
	require.NoError(t, err)
	_, err = s.UpdateTaskStatus(started.TaskID, types.TaskStatusInProgress, "tester")
	require.NoError(t, err)

	counts, err := s.CountTasksByStatus(epic.EpicNum)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[types.TaskStatusTodo])
	assert.Equal(t, int64(1), counts[types.TaskStatusInProgress])

	empty, err := s.CountTasksByStatus(999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
