// Package store provides the public API for opening a foreman project
// store. It exposes the factory function while keeping the SQLite
// implementation internal.
package store

import (
	"github.com/millbridge/foreman/internal/sqlite"
	"github.com/millbridge/foreman/pkg/types"
)

// Store is the handle for a single project's state. All methods are safe
// for concurrent use from multiple goroutines.
type Store = sqlite.Store

// Open opens (creating if necessary) the project database under
// cfg.DataDir and applies any missing schema. The returned Store holds
// an exclusive write connection; call Close when done.
//
// Example:
//
//	st, err := store.Open(types.DefaultConfig(".foreman"))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(cfg types.Config) (*Store, error) {
	return sqlite.Open(cfg)
}
