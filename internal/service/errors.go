package service

import (
	"errors"
	"fmt"

	"procurement/internal/repository"
)

// Workflow error taxonomy. Callers match with errors.Is; every error leaves state untouched.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidState      = errors.New("operation not permitted in current status")
	ErrNotInvited        = errors.New("supplier is not invited to this quotation")
	ErrImmutableResponse = errors.New("supplier response is already final")
	ErrNotEligible       = errors.New("quotation is not eligible to close")
	ErrAlreadyClosed     = errors.New("quotation is already closed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("quotation was modified concurrently, reload and retry")
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateAccount   = errors.New("account already exists")
)

// NotEligibleError carries the evaluator's reason for refusing a close.
type NotEligibleError struct {
	Reason  string
	Pending int
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotEligible.Error(), e.Reason)
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// translateStoreErr maps storage sentinels onto the workflow taxonomy.
func translateStoreErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("%s", what)
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConflict
	default:
		return err
	}
}
