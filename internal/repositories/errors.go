package repositories

import "fmt"

// Error implements RepositoryError for the storage backends in this module.
type Error struct {
	op          string
	err         error
	notFound    bool
	unavailable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsNotFound reports whether the error represents a missing record.
func (e *Error) IsNotFound() bool {
	return e != nil && e.notFound
}

// IsUnavailable reports whether the error represents a backend failure.
func (e *Error) IsUnavailable() bool {
	return e != nil && e.unavailable
}

// NewNotFound wraps err as a not-found repository error.
func NewNotFound(op string, err error) *Error {
	return &Error{op: op, err: err, notFound: true}
}

// NewUnavailable wraps err as an unavailable repository error.
func NewUnavailable(op string, err error) *Error {
	return &Error{op: op, err: err, unavailable: true}
}
