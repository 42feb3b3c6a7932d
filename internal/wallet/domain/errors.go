package domain

import (
	"errors"
	"fmt"
)

// ValidationError carries a reason string that is shown to the user verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing wallet, rate or schedule lookup.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Entity, e.Key) }

// FatalDataError marks corrupted persistent state (e.g. a negative balance).
// Never auto-corrected; the user is told to contact support.
type FatalDataError struct {
	Reason string
}

func (e *FatalDataError) Error() string { return e.Reason }

// ConcurrencyError marks a conflicting concurrent balance mutation.
// The whole operation has been rolled back; the caller may retry once.
type ConcurrencyError struct {
	Reason string
}

func (e *ConcurrencyError) Error() string { return e.Reason }

var ErrNotWalletOwner = errors.New("wallet does not belong to the acting user")

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsFatalData(err error) bool {
	var fd *FatalDataError
	return errors.As(err, &fd)
}

func IsConcurrency(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
