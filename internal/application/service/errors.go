package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvoiceNotEligible is returned when a refund is created against
	// an invoice that is unsettled or already refunded.
	ErrInvoiceNotEligible = errors.New("invoice is not eligible for refund")

	// ErrStaleAmount is returned when a submitted refund amount does not
	// equal the amount re-derived from the submitted cost components. The
	// derived amount is the single source of truth; a stale value is
	// never persisted.
	ErrStaleAmount = errors.New("submitted amount does not match derived amount")
)

// ValidationError reports every missing or invalid field of a submission,
// not just the first, so the caller can surface all of them at once.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// Add records a failed field and returns the error for chaining.
func (e *ValidationError) Add(field string) *ValidationError {
	e.Fields = append(e.Fields, field)
	return e
}

// HasErrors returns true if any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
