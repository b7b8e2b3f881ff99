// Shared helpers for foreman CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/millbridge/foreman/internal/config"
	"github.com/millbridge/foreman/pkg/store"
	"github.com/millbridge/foreman/pkg/types"
)

// openStore loads the configuration and opens the project store. The caller
// must defer st.Close().
func openStore() (*store.Store, error) {
	cfg, err := config.Load(flagConfigDir, flagDataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// fatal prints err and exits with the code matching its class: storage
// failures are system errors, everything else is a user error.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, types.ErrStorageUnavailable) {
		os.Exit(exitSysError)
	}
	os.Exit(exitUserError)
}

// emit prints v as indented JSON when --json is set, otherwise hands off to
// the plain-text printer.
func emit(v any, plain func()) {
	if !flagJSON {
		plain()
		return
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(fmt.Errorf("encode output: %w", err))
	}
	fmt.Println(string(raw))
}

// optional returns a pointer to the flag value when the flag was changed,
// nil otherwise, so unset flags never clobber stored fields.
func optional(changed bool, value string) *string {
	if !changed {
		return nil
	}
	return &value
}
