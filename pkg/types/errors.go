package types

import (
	"errors"
	"fmt"
)

// Record and store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidData     = errors.New("invalid record data")
	ErrInvalidPosition = errors.New("invalid row position")
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrNoHeader        = errors.New("sheet has no header row")
	ErrUnknownProfile  = errors.New("unknown profile")
)

// Lifecycle errors for stores and backends.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// invalid reports a validation failure on a single field.
func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidData, field, reason)
}

// StoreError is returned when the backing store answers a request with a
// non-success status. Status is 0 for backends that do not speak HTTP.
type StoreError struct {
	Op     string
	Sheet  string
	Status int
	Body   string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Sheet, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Sheet, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Sheet, e.Body)
}

func (e *StoreError) Unwrap() error { return e.Err }
