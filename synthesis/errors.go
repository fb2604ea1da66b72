package synthesis

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySelection  = errors.New("no webhooks selected")
	ErrTooManySamples  = errors.New("too many webhooks selected")
	ErrTooManyRequests = errors.New("too many synthesis requests in flight")
	ErrNoValidSamples  = errors.New("none of the selected webhooks exist")
	ErrSynthesisFailed = errors.New("synthesis failed")
	ErrUpstreamTimeout = errors.New("generative backend timed out")
	ErrUpstreamError   = errors.New("generative backend failed")
)

/* Error is returned when the backend call could not produce code
 * It matches ErrSynthesisFailed, its Kind and its Cause with errors.Is
 */
type Error struct {
	Kind  error // ErrUpstreamTimeout or ErrUpstreamError
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v: %v", ErrSynthesisFailed, e.Kind, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{ErrSynthesisFailed, e.Kind, e.Cause}
}

// TransientError marks a backend failure worth one more attempt
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient backend error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient backend error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RejectedError is a refusal by the backend; it is never retried
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected request (status %d): %s", e.StatusCode, e.Message)
}
