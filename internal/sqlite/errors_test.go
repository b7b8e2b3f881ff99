package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/millbridge/foreman/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil",
			err:  nil,
			want: nil,
		},
		{
			name: "no rows maps to not found",
			err:  fmt.Errorf("getting row: %w", sql.ErrNoRows),
			want: types.ErrNotFound,
		},
		{
			name: "busy maps to storage unavailable",
			err:  errors.New("database is locked (5) (SQLITE_BUSY)"),
			want: types.ErrStorageUnavailable,
		},
		{
			name: "unique violation maps to conflict",
			err:  errors.New("constraint failed: UNIQUE constraint failed: epics.epic_num (2067)"),
			want: types.ErrConflict,
		},
		{
			name: "unrecognized errors pass through",
			err:  errors.New("disk I/O error"),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: tasks.epic_num, tasks.story_num")))
	assert.False(t, isUniqueViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, isUniqueViolation(nil))
}

func TestFailWrapsAndClassifies(t *testing.T) {
	s := setupStore(t)

	err := s.fail("get epic", sql.ErrNoRows)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "get epic")

	// Errors that already carry a sentinel keep it.
	err = s.fail("create task", fmt.Errorf("epic 7: %w", types.ErrNotFound))
	assert.ErrorIs(t, err, types.ErrNotFound)

	plain := errors.New("disk I/O error")
	err = s.fail("list epics", plain)
	assert.ErrorIs(t, err, plain)
}
