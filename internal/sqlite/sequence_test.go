package sqlite

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millbridge/foreman/pkg/types"
)

func TestNextNumbersStartAtOne(t *testing.T) {
	s := setupStore(t)

	err := s.withTx(func(tx *sql.Tx) error {
		num, err := nextEpicNum(tx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), num)

		story, err := nextStoryNum(tx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), story)
		return nil
	})
	require.NoError(t, err)
}

func TestAllocateRetriesOnUniqueViolation(t *testing.T) {
	s := setupStore(t)

	attempts := 0
	err := s.allocate("test alloc", func(tx *sql.Tx) error {
		attempts++
		if attempts < 3 {
			return errors.New("UNIQUE constraint failed: epics.epic_num")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAllocateRetriesOnBusySnapshot(t *testing.T) {
	s := setupStore(t)

	// The loser of a cross-connection race usually surfaces as a snapshot
	// upgrade failure rather than a constraint violation.
	attempts := 0
	err := s.allocate("test alloc", func(tx *sql.Tx) error {
		attempts++
		if attempts < 3 {
			return errors.New("inserting task: database is locked (517) (SQLITE_BUSY_SNAPSHOT)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAllocateExhaustsBoundedAttempts(t *testing.T) {
	cfg := types.DefaultConfig(t.TempDir())
	cfg.AllocationAttempts = 2
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	attempts := 0
	err = s.allocate("test alloc", func(tx *sql.Tx) error {
		attempts++
		return errors.New("UNIQUE constraint failed: epics.epic_num")
	})
	assert.ErrorIs(t, err, types.ErrAllocationExhausted)
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.Equal(t, 2, attempts)
}

func TestAllocateStopsOnOtherErrors(t *testing.T) {
	s := setupStore(t)

	boom := errors.New("disk I/O error")
	attempts := 0
	err := s.allocate("test alloc", func(tx *sql.Tx) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestAllocBackoffDoublesWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 4; attempt++ {
		base := 10 * time.Millisecond << (attempt - 1)
		for i := 0; i < 20; i++ {
			d := allocBackoff(attempt)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, 2*base)
		}
	}
}
