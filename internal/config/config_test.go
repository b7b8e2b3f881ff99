package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millbridge/foreman/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()

	cfg, err := Load(configDir, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, types.DefaultBusyTimeout, cfg.BusyTimeout)
	assert.Equal(t, types.DefaultAllocationAttempts, cfg.AllocationAttempts)
	assert.Equal(t, types.DefaultReadRetries, cfg.ReadRetries)
}

func TestLoadWritesDefaultConfigFile(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "foreman")

	_, err := Load(configDir, t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "busy_timeout")

	// A second load leaves the existing file alone.
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("read_retries: 7\n"), 0o644))
	cfg, err := Load(configDir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ReadRetries)
}

func TestLoadReadsConfigFile(t *testing.T) {
	configDir := t.TempDir()
	content := "busy_timeout: 2s\nallocation_attempts: 9\nread_retries: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(configDir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.BusyTimeout)
	assert.Equal(t, 9, cfg.AllocationAttempts)
	assert.Equal(t, 1, cfg.ReadRetries)
}

func TestLoadDataDirFromConfigFile(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("data_dir: "+dataDir+"\n"), 0o644))

	cfg, err := Load(configDir, "")
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
}

func TestLoadDataDirEnvOverridesConfigFile(t *testing.T) {
	configDir := t.TempDir()
	fileDir := t.TempDir()
	envDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("data_dir: "+fileDir+"\n"), 0o644))
	t.Setenv("FOREMAN_DATA_DIR", envDir)

	cfg, err := Load(configDir, "")
	require.NoError(t, err)
	assert.Equal(t, envDir, cfg.DataDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("allocation_attempts: 9\n"), 0o644))
	t.Setenv("FOREMAN_ALLOCATION_ATTEMPTS", "4")

	cfg, err := Load(configDir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.AllocationAttempts)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("busy_timeout: 0s\n"), 0o644))

	_, err := Load(configDir, t.TempDir())
	assert.ErrorIs(t, err, types.ErrBusyTimeoutInvalid)
}
