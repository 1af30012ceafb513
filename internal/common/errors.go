// Package common defines shared constants and sentinel errors used across
// the herdlog client layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (

	// repository-level errors
	ErrorNotFound = errors.New("not found")

	// identity errors
	ErrNoUserID     = errors.New("no user id")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// submission-path errors
	ErrStoreUnavailable = errors.New("record store unavailable")

	// analysis-path errors
	ErrDispatchFailed  = errors.New("analysis dispatch failed")
	ErrRunFailed       = errors.New("analysis run failed")
	ErrRunTimeout      = errors.New("analysis run timed out")
	ErrRunNotRetryable = errors.New("analysis run is not in a retryable state")
)

// ValidationError reports the first record-level invariant an entry violates.
// It blocks submission and never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
