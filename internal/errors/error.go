// Package errors provides the error taxonomy for storefront storage and cart operations.
package errors

import (
	"errors"
	"fmt"
)

// Not-found outcomes. These are normal results of a lookup, never a
// storage fault, and are matched with errors.Is.
var ErrProductNotFound = errors.New("product not found")
var ErrCategoryNotFound = errors.New("product category not found")
var ErrSupplierNotFound = errors.New("supplier not found")
var ErrOrderNotFound = errors.New("order not found")

// ErrInvalidQuantity is returned when a cart merge is requested with a
// non-positive quantity. The order is left untouched.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ErrBrokenReference signals that a stored category or supplier
// reference does not resolve to an existing record.
var ErrBrokenReference = errors.New("stored reference does not resolve")

// StorageError reports that the backing medium could not complete an
// operation. It carries the operation, the entity family and, when
// known, the entity id, so the caller can log and abort the request.
type StorageError struct {
	Op     string
	Entity string
	ID     int64
	Err    error
}

func (e *StorageError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("storage failure: %s %s id=%d: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage failure: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err into a StorageError. Pass id 0 when the identity is
// not known yet (e.g. a failed insert).
func Storage(op, entity string, id int64, err error) error {
	return &StorageError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
