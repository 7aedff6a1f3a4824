// Package sqlite provides the public API for the SQLite pocketbook backend.
// This package exposes the factory functions for creating SQLite stores
// while keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pocketbook/internal/sqlite"
	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// Open creates a SQLite store, migrates the database in config.DataDir to
// the current schema and seeds defaults for config.UserID on first start.
// No table is reachable until migration has finished.
//
// Example:
//
//	store, err := sqlite.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	    UserID:  userID,
//	}, zerolog.Nop())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(config types.Config, log zerolog.Logger) (types.Store, error) {
	b := sqlite.NewBackend(sqlite.WithLogger(log))
	if err := b.Open(config); err != nil {
		return nil, err
	}
	return b, nil
}
