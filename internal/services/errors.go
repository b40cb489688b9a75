package services

import "errors"

var (
	// ErrInvalidInput signals the caller provided malformed data.
	ErrInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrInvalidTransition indicates the requested status is not reachable from
	// the current status for the acting side.
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrPermissionDenied indicates the actor lacks the business linkage or the
	// specific permission the transition requires.
	ErrPermissionDenied = errors.New("order: permission denied")
	// ErrNoOpRejected indicates a transition was computed but no substantive
	// change justifies it.
	ErrNoOpRejected = errors.New("order: no-op change rejected")
	// ErrConflict indicates optimistic concurrency conflicts or duplicates.
	ErrConflict = errors.New("order: conflict")
)
