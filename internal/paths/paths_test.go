package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigDir(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		dir, err := ResolveConfigDir("/explicit/config")
		require.NoError(t, err)
		assert.Equal(t, "/explicit/config", dir)
	})

	t.Run("env var beats platform default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		dir, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config", dir)
	})

	t.Run("falls back to platform default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir
		platformDir.homeDir = func() (string, error) { return "/home/user", nil }
		platformDir.userConfigDir = func() (string, error) { return "/home/user/cfg", nil }
		t.Cleanup(func() { platformDir = orig })

		dir, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "foreman", filepath.Base(dir))
	})
}

func TestResolveDataDir(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		t.Setenv(EnvDataDir, "/env/data")
		dir, err := ResolveDataDir("/explicit/data", "/config/data")
		require.NoError(t, err)
		assert.Equal(t, "/explicit/data", dir)
	})

	t.Run("env beats config value", func(t *testing.T) {
		t.Setenv(EnvDataDir, "/env/data")
		dir, err := ResolveDataDir("", "/config/data")
		require.NoError(t, err)
		assert.Equal(t, "/env/data", dir)
	})

	t.Run("config value beats cwd default", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		dir, err := ResolveDataDir("", "/config/data")
		require.NoError(t, err)
		assert.Equal(t, "/config/data", dir)
	})

	t.Run("defaults to cwd-relative directory", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		dir, err := ResolveDataDir("", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultDataDirName, filepath.Base(dir))
		assert.True(t, filepath.IsAbs(dir))
	})
}

func TestDatabaseFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", DatabaseFileName), DatabaseFile("/data"))
}
