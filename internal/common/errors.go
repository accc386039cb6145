// Package common defines shared sentinel errors used across server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrTypeRejected aborts finalization: the upload's extension is not
	// permitted by the configured type policy.
	ErrTypeRejected = errors.New("file type rejected")

	// ErrDuplicateSession marks a completion notification for a session that
	// already produced its records. Absorbed as a no-op by the finalizer,
	// never surfaced to the transport.
	ErrDuplicateSession = errors.New("session already finalized")

	// Service-level errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)
