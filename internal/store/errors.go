package store

import "errors"

var (
	// ErrUserNotFound is returned when a user record is absent. It also
	// covers the case where the store itself failed; the adapter layer
	// collapses the two on purpose.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRecord is returned when a record's shape fails validation
	// on the validated write path.
	ErrInvalidRecord = errors.New("invalid record shape")

	// ErrWriteFailed is returned when a typed write did not reach the
	// store.
	ErrWriteFailed = errors.New("store write failed")
)
