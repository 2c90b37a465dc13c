package models

import (
	"fmt"
	"time"
)

// ErrValidation indicates bad input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a document does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnsupportedSpan is returned for stays whose nights touch more than two
// calendar months.
type ErrUnsupportedSpan struct {
	CheckIn  time.Time
	CheckOut time.Time
	Months   int
}

func (e *ErrUnsupportedSpan) Error() string {
	return fmt.Sprintf("stay %s to %s spans %d months, at most 2 are supported",
		e.CheckIn.Format(time.DateOnly), e.CheckOut.Format(time.DateOnly), e.Months)
}

// ErrSplitWrite reports a month-split booking whose second half could not be
// stored. Compensation is the error from deleting the first half, if any; a nil
// Compensation means the first half was removed and nothing was persisted.
type ErrSplitWrite struct {
	FirstID      string
	Cause        error
	Compensation error
}

func (e *ErrSplitWrite) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("store second half of split booking: %v; first half %s left orphaned: %v", e.Cause, e.FirstID, e.Compensation)
	}
	return fmt.Sprintf("store second half of split booking: %v; first half %s rolled back", e.Cause, e.FirstID)
}

func (e *ErrSplitWrite) Unwrap() []error {
	errs := []error{e.Cause}
	if e.Compensation != nil {
		errs = append(errs, e.Compensation)
	}
	return errs
}

// ErrStoreUnavailable indicates the document store refused calls because its
// circuit breaker is open.
type ErrStoreUnavailable struct {
	Operation string
	Err       error
}

func (e *ErrStoreUnavailable) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Operation, e.Err)
}

func (e *ErrStoreUnavailable) Unwrap() error {
	return e.Err
}
