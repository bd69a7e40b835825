// Package service implements the business rules on top of the repository
// layer: spot validation and lifecycle, the atomic confirmation
// transaction, and the points ledger arithmetic.
package service

import "fmt"

// ValidationError reports a single rejected input field.  It is raised
// synchronously before any write; callers must fix the input rather than
// retry.  Handlers translate it into an HTTP 400.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
