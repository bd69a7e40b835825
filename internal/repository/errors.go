// Package repository implements the persistence layer over MySQL.  This
// file defines the sentinel errors shared across repositories so that the
// service and handler layers can distinguish failure scenarios without
// inspecting SQL errors.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, or one the owner may not perform on their own
// spot (confirming it).  Handlers translate this into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation loses a race against a
// concurrent writer or the record is already in a consumed state.  The
// condition is retryable after a fresh read.  Handlers translate this
// into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrExpired is returned when the target spot's expiry instant has
// passed.  The condition is terminal for that spot.  Handlers translate
// this into an HTTP 410.
var ErrExpired = errors.New("expired")
