package cli

import (
	"errors"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// exitError carries the exit code a failed command should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// userCaused lists the store errors that mean the input was wrong.
var userCaused = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrInvalidName,
	types.ErrInvalidAmount,
	types.ErrInvalidDate,
	types.ErrInvalidKind,
	types.ErrLegacyTransfer,
	types.ErrSameAccount,
	types.ErrNotLinked,
	types.ErrCategoryMismatch,
	types.ErrSchemaTooNew,
}

// classify wraps a store error with the exit code it maps to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range userCaused {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}
