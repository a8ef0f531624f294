package llm

import (
	"errors"
)

// Completion errors are classified as transient or fatal so the client
// knows whether retrying a decision call can help.

// TransientError marks an error worth retrying, such as a timeout or
// an overloaded endpoint.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks an error retrying cannot fix, such as a rejected
// request or bad credentials.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps err as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err rules out further attempts.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
