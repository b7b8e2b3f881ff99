package sqlite

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/millbridge/foreman/pkg/types"
)

// The sequence allocator hands out epic numbers and per-epic story numbers
// without a lock manager. Each attempt computes MAX(existing)+1 and inserts
// the row carrying that value inside the same transaction; a concurrent
// writer that raced ahead surfaces as a UNIQUE violation on the number
// index, or as a busy/locked error when the loser's transaction cannot
// upgrade its WAL snapshot, and the whole read-compute-insert cycle is
// retried with a small jittered backoff. Exhausting the bounded attempts
// escalates to ErrAllocationExhausted.

// allocate runs one read-compute-insert attempt per iteration until fn
// succeeds, a non-retryable error occurs, or the bounded attempts run out.
// Both UNIQUE violations and busy/locked errors restart the cycle: under
// WAL a racing writer on another connection usually loses with
// SQLITE_BUSY_SNAPSHOT rather than a constraint failure, and busy_timeout
// does not wait on snapshot upgrades.
func (s *Store) allocate(op string, fn func(tx *sql.Tx) error) error {
	attempts := s.cfg.AllocationAttempts
	for attempt := 1; ; attempt++ {
		err := s.withTx(fn)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) && !isBusy(err) {
			return err
		}
		if attempt >= attempts {
			s.log.Error("sequence allocation exhausted", "op", op, "attempts", attempts)
			return fmt.Errorf("%w after %d attempts", types.ErrAllocationExhausted, attempts)
		}
		time.Sleep(allocBackoff(attempt))
	}
}

// allocBackoff returns a jittered sleep before the next allocation attempt,
// doubling from 10ms. The jitter keeps two racing processes from retrying
// in lockstep.
func allocBackoff(attempt int) time.Duration {
	base := 10 * time.Millisecond << (attempt - 1)
	return base + time.Duration(rand.Int63n(int64(base)))
}

// nextEpicNum computes the next unallocated epic number within tx.
func nextEpicNum(tx *sql.Tx) (int64, error) {
	var next int64
	err := tx.QueryRow("SELECT COALESCE(MAX(epic_num), 0) + 1 FROM epics").Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("computing next epic number: %w", err)
	}
	return next, nil
}

// nextStoryNum computes the next unallocated story number scoped to one
// epic within tx.
func nextStoryNum(tx *sql.Tx, epicNum int64) (int64, error) {
	var next int64
	err := tx.QueryRow(
		"SELECT COALESCE(MAX(story_num), 0) + 1 FROM tasks WHERE epic_num = ?",
		epicNum,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("computing next story number for epic %d: %w", epicNum, err)
	}
	return next, nil
}
