package source

import (
	"errors"
	"fmt"
)

// NotFoundError signals that the provider does not have the requested media.
// It is an expected outcome, not a failure.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return "not found"
	}
	return fmt.Sprintf("not found: %s", e.Reason)
}

// NotFound returns a NotFoundError with the given reason.
func NotFound(reason string) error {
	return &NotFoundError{Reason: reason}
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// NotFoundReason extracts the reason of a wrapped NotFoundError.
func NotFoundReason(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Reason
	}
	return ""
}
