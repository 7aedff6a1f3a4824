// Package types defines the Store and Table interfaces, entity types, and
// standard errors for pocketbook.
package types

import "errors"

// Config holds backend selection and parameters for opening a Store.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// UserID identifies the installation's current user. It is only used to
	// seed default reference data after migration; migration itself touches
	// the whole schema regardless of user.
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DatabaseFile is the file name of the SQLite database inside DataDir.
const DatabaseFile = "pocketbook.db"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}
