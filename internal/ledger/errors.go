package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the recoverable failure conditions of the
// engine. All of them are local and leave the ledger unchanged.
var (
	ErrNotFound          = errors.New("ledger: not found")
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	ErrExpired           = errors.New("ledger: medicine expired")
	ErrInvalidInput      = errors.New("ledger: invalid input")
	ErrSupplierNotFound  = errors.New("ledger: supplier not found")
)

// PersistenceError reports a storage failure. The operation that
// returned it was rolled back and left no partial state behind.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
