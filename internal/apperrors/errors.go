package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError signals malformed input: missing sub-record, non-positive
// quantity, duplicate lot assignment. Nothing is persisted.
type ValidationError struct {
	RequestID string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: request %s: %s", e.RequestID, e.Reason)
}

// InvalidTransitionError signals that the target status is not reachable from
// the request's current status.
type InvalidTransitionError struct {
	RequestID string
	From      string
	To        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: request %s: %s -> %s", e.RequestID, e.From, e.To)
}

// ConcurrentConflictError signals the duplicate-status guard: an event with the
// target status already exists for the request. Callers should treat it as an
// idempotent no-op or refresh and retry.
type ConcurrentConflictError struct {
	RequestID string
	Status    string
}

func (e *ConcurrentConflictError) Error() string {
	return fmt.Sprintf("concurrent conflict: request %s already has event with status %s", e.RequestID, e.Status)
}

// InsufficientStockError signals that a reservation cannot be satisfied from
// the aggregate availability of the coordinate.
type InsufficientStockError struct {
	Coordinate string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s: requested %d, available %d", e.Coordinate, e.Requested, e.Available)
}

// LedgerInvariantError signals a would-be negative total/reserve/available.
// It is never clamped; the owning request should be driven to the error status.
type LedgerInvariantError struct {
	Coordinate string
	Op         string
	Requested  int
	Reason     string
}

func (e *LedgerInvariantError) Error() string {
	return fmt.Sprintf("ledger invariant: %s %s qty %d: %s", e.Op, e.Coordinate, e.Requested, e.Reason)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsConcurrentConflict(err error) bool {
	var e *ConcurrentConflictError
	return errors.As(err, &e)
}

func IsInsufficientStock(err error) bool {
	var e *InsufficientStockError
	return errors.As(err, &e)
}

func IsLedgerInvariant(err error) bool {
	var e *LedgerInvariantError
	return errors.As(err, &e)
}
