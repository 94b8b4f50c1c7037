package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input, such as a bad
// HH:mm time or an out-of-range hours value. The operation is rejected,
// never silently corrected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports that no records match the requested scope. For
// report generation it is raised before any PDF work begins.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// ConflictError reports a duplicate registration for the same event
// and date.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// StreamError wraps a failure while writing PDF bytes to the response.
// There is no retry and no cleanup of partially written output.
type StreamError struct {
	Stage string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream failure during %s: %v", e.Stage, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

func Conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

func Stream(stage string, err error) error {
	return &StreamError{Stage: stage, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsStream(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}
