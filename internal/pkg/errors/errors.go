package errors

import "errors"

// Generic classes. Package sentinels wrap one of these so the HTTP edge can
// classify with errors.Is without importing every package.
var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a generic sentinel for duplicate resources.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable marks an upstream that could not be reached or refused.
	ErrUnavailable = errors.New("unavailable")
)

// Is, As, New and Join re-export the stdlib helpers so callers import one package.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)
