package retry

import "errors"

// TransientError marks a failure that may resolve on retry: network
// faults, timeouts, remote 5xx, rate limits.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

// Unwrap exposes the wrapped error for errors.Is/As.
func (e *TransientError) Unwrap() error { return e.err }

// Transient wraps an error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

// PermanentError marks a failure that will not resolve on retry: auth
// revoked, schema violations, rejected payloads.
type PermanentError struct {
	err error
}

func (e *PermanentError) Error() string { return e.err.Error() }

// Unwrap exposes the wrapped error for errors.Is/As.
func (e *PermanentError) Unwrap() error { return e.err }

// Permanent wraps an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{err: err}
}

// IsTransient reports whether err is marked transient.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
