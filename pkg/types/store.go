package types

import "errors"

// Store defines backend-agnostic access to a migrated pocketbook database.
// A Store returned by a backend factory has already been brought up to the
// current schema; no table is handed out before migration completes.
type Store interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// SchemaVersion returns the version recorded in the database.
	SchemaVersion() (int, error)

	// IsInitialized reports whether default reference data has been seeded.
	IsInitialized() (bool, error)

	// SeedDefaults inserts the default categories and subcategories for
	// userID if absent and sets the initialization flag. Safe to repeat.
	SeedDefaults(userID string) error

	// UpdateProfile updates the user row and replaces its interests as one
	// all-or-nothing change.
	UpdateProfile(user *User, interests []string) error

	// RecordTransfer writes a linked debit/credit pair and returns both ids.
	RecordTransfer(transfer Transfer) (debitID, creditID string, err error)

	// LinkedPair returns the debit and credit legs of the pair that the
	// transaction with the given id belongs to.
	LinkedPair(id string) (debit, credit *Transaction, err error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// Store lifecycle errors.
var (
	ErrStoreClosed   = errors.New("store is closed")
	ErrAlreadyOpen   = errors.New("store is already open")
	ErrTableNotFound = errors.New("table not found")
)
