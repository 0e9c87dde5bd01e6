// Package apierr lets services attach an HTTP status and a stable error
// code to a failure without importing gin. Handlers unwrap it with
// errors.As and fall back to a 500 for anything else.
package apierr

import "fmt"

// Error carries the transport-facing view of a failure.
type Error struct {
	Status int    // HTTP status the handler should respond with
	Code   string // stable machine-readable code, e.g. "invalid_request"
	Err    error  // underlying cause, may be nil
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("http %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
