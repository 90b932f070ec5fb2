// Package repository defines error values that are shared across the
// repository and service layers. Sentinels classify a failure; the
// ScheduleError wrapper pairs a sentinel with the message shown to the
// person whose request was rejected. Handlers match sentinels with
// errors.Is to pick response codes and surface the message unchanged.
package repository

import "errors"

// ErrCapacityExceeded is returned when a counted resource (class seat,
// staff quarters, faction quarters) has no remaining room.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrAlreadyReserved is returned when a week-quarters slot is already
// exclusively held by another faction.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrInvalidCapacity is returned when a non-positive capacity is supplied
// for a ledger entry.
var ErrInvalidCapacity = errors.New("invalid capacity")

// ErrMissingResource is returned when a required resource reference, such
// as quarters, cannot be resolved or defaulted.
var ErrMissingResource = errors.New("missing resource")

// ErrStoreConflict is returned when the database reports a concurrent
// modification (deadlock or lock wait timeout) inside a scheduling
// transaction. Callers may retry; it must not be mistaken for a capacity
// problem.
var ErrStoreConflict = errors.New("store conflict")

// ErrNotFound is returned when a referenced record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting existing state, such as a duplicate enrollment for the same
// person and resource. Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ScheduleError carries a user-presentable message on top of one of the
// sentinels above. errors.Is(err, sentinel) still matches through it.
type ScheduleError struct {
	Kind    error
	Message string
}

// Error returns the user-facing message.
func (e *ScheduleError) Error() string { return e.Message }

// Unwrap exposes the sentinel for errors.Is matching.
func (e *ScheduleError) Unwrap() error { return e.Kind }

// NewScheduleError builds a ScheduleError from a sentinel and message.
func NewScheduleError(kind error, message string) error {
	return &ScheduleError{Kind: kind, Message: message}
}
