package types

import (
	"errors"
	"time"
)

// Config holds the parameters for opening a project-state store.
type Config struct {
	// DataDir is the directory holding the single database file for the
	// project. Created on first open if missing.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// BusyTimeout bounds how long a statement waits on a locked database
	// before failing with ErrStorageUnavailable.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// AllocationAttempts bounds the read-compute-insert retry cycle of the
	// sequence allocator before it escalates to ErrAllocationExhausted.
	AllocationAttempts int `json:"allocation_attempts" yaml:"allocation_attempts"`

	// ReadRetries bounds internal retries of read operations that hit a
	// busy database. Writes never retry internally.
	ReadRetries int `json:"read_retries" yaml:"read_retries"`

	// OnAuditWarning receives change-history write failures. The primary
	// mutation is already committed when it fires. Nil means log-only.
	OnAuditWarning func(error) `json:"-" yaml:"-"`
}

// Config defaults.
const (
	DefaultBusyTimeout        = 5 * time.Second
	DefaultAllocationAttempts = 5
	DefaultReadRetries        = 3
)

// Config validation errors.
var (
	ErrDataDirEmpty              = errors.New("data dir must not be empty")
	ErrBusyTimeoutInvalid        = errors.New("busy timeout must be positive")
	ErrAllocationAttemptsInvalid = errors.New("allocation attempts must be positive")
	ErrReadRetriesInvalid        = errors.New("read retries must not be negative")
)

// DefaultConfig returns a Config for the given data directory with all
// tuning knobs at their defaults.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:            dataDir,
		BusyTimeout:        DefaultBusyTimeout,
		AllocationAttempts: DefaultAllocationAttempts,
		ReadRetries:        DefaultReadRetries,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.BusyTimeout <= 0 {
		return ErrBusyTimeoutInvalid
	}
	if c.AllocationAttempts <= 0 {
		return ErrAllocationAttemptsInvalid
	}
	if c.ReadRetries < 0 {
		return ErrReadRetriesInvalid
	}
	return nil
}
