package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the
	// account balance. The operation is rejected, never clamped.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyAccrued is returned when an accrual is attempted for an
	// account that already holds a mark for the same period.
	ErrAlreadyAccrued = errors.New("accrual already applied for period")
)

// ValidationError reports an input that fails a domain precondition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a uniqueness or state conflict: a duplicate
// (customer, variant) account or loan, a concurrent write detected by the
// version check, or a transition out of a terminal loan status.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

// AccountFailure ties a failed accrual to the account it happened on.
type AccountFailure struct {
	AccountID uuid.UUID `json:"account_id"`
	Err       error     `json:"-"`
	Message   string    `json:"error"`
}

// BatchPartialFailure is returned by an accrual cycle in which one or more
// accounts failed. Unaffected accounts still committed.
type BatchPartialFailure struct {
	Failures []AccountFailure
}

func (e *BatchPartialFailure) Error() string {
	return fmt.Sprintf("accrual cycle: %d account(s) failed", len(e.Failures))
}
