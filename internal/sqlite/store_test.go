package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millbridge/foreman/internal/paths"
	"github.com/millbridge/foreman/pkg/types"
)

// setupStore opens a Store on a throwaway data directory, closed when the
// test finishes.
func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", ".foreman")

	s, err := Open(types.DefaultConfig(dataDir))
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(paths.DatabaseFile(dataDir))
	assert.NoError(t, err)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{
			name:    "empty data dir",
			cfg:     types.Config{BusyTimeout: time.Second, AllocationAttempts: 1, ReadRetries: 1},
			wantErr: types.ErrDataDirEmpty,
		},
		{
			name:    "zero busy timeout",
			cfg:     types.Config{DataDir: "x", AllocationAttempts: 1, ReadRetries: 1},
			wantErr: types.ErrBusyTimeoutInvalid,
		},
		{
			name:    "zero allocation attempts",
			cfg:     types.Config{DataDir: "x", BusyTimeout: time.Second, ReadRetries: 1},
			wantErr: types.ErrAllocationAttemptsInvalid,
		},
		{
			name:    "negative read retries",
			cfg:     types.Config{DataDir: "x", BusyTimeout: time.Second, AllocationAttempts: 1, ReadRetries: -1},
			wantErr: types.ErrReadRetriesInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReopenPreservesData(t *testing.T) {
	dataDir := t.TempDir()
	cfg := types.DefaultConfig(dataDir)

	s, err := Open(cfg)
	require.NoError(t, err)
	epic, err := s.CreateEpic(types.EpicParams{Title: "Persisted epic"}, "tester")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Schema application is idempotent across opens.
	s2, err := Open(cfg)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetEpic(epic.EpicID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted epic", got.Title)
	assert.Equal(t, epic.EpicNum, got.EpicNum)
}

func TestTwoStoresShareOneDatabase(t *testing.T) {
	dataDir := t.TempDir()
	cfg := types.DefaultConfig(dataDir)

	a, err := Open(cfg)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(cfg)
	require.NoError(t, err)
	defer b.Close()

	epic, err := a.CreateEpic(types.EpicParams{Title: "Shared epic"}, "a")
	require.NoError(t, err)

	got, err := b.GetEpic(epic.EpicID)
	require.NoError(t, err)
	assert.Equal(t, "Shared epic", got.Title)
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := now()
	parsed, err := parseTime(formatTime(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}
