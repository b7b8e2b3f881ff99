// Package config loads the Foreman store configuration from config.yaml and
// FOREMAN_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/millbridge/foreman/internal/paths"
	"github.com/millbridge/foreman/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "FOREMAN"

	cfgKeyDataDir            = "data_dir"
	cfgKeyBusyTimeout        = "busy_timeout"
	cfgKeyAllocationAttempts = "allocation_attempts"
	cfgKeyReadRetries        = "read_retries"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Foreman store configuration

# Data directory holding the project database file.
# Defaults to $(CWD)/.foreman; overridable by FOREMAN_DATA_DIR.
# data_dir:

# How long a statement waits on a locked database before failing.
busy_timeout: 5s

# Bounded retries for racing sequence allocations.
allocation_attempts: 5

# Internal retries for reads that hit a busy database.
read_retries: 3
`

// Load reads config.yaml from the resolved config directory and returns a
// validated store Config. A missing config.yaml is not an error; defaults
// and environment variables apply. The config directory and a commented
// default file are created on first run.
func Load(configDirOverride, dataDirOverride string) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(configDirOverride)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}

	v, err := loadViper(configDir)
	if err != nil {
		return types.Config{}, err
	}

	dataDir, err := paths.ResolveDataDir(dataDirOverride, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		DataDir:            dataDir,
		BusyTimeout:        v.GetDuration(cfgKeyBusyTimeout),
		AllocationAttempts: v.GetInt(cfgKeyAllocationAttempts),
		ReadRetries:        v.GetInt(cfgKeyReadRetries),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadViper builds the viper instance with defaults, env binding, and the
// config file if present.
func loadViper(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBusyTimeout, types.DefaultBusyTimeout)
	v.SetDefault(cfgKeyAllocationAttempts, types.DefaultAllocationAttempts)
	v.SetDefault(cfgKeyReadRetries, types.DefaultReadRetries)

	v.SetEnvPrefix(envPrefix)
	v.BindEnv(cfgKeyBusyTimeout)
	v.BindEnv(cfgKeyAllocationAttempts)
	v.BindEnv(cfgKeyReadRetries)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config.yaml is not an error.
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a commented default config.yaml if none
// exists in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
