package status

import (
	"fmt"
)

// Error is an error that knows which response status it should be answered with.
type Error struct {
	cause  error
	Status Status
}

func NewError(err error, status Status) Error {
	return Error{cause: err, Status: status}
}

func (e Error) Error() string {
	cause := ""
	if e.cause != nil {
		cause = e.cause.Error()
	}

	return fmt.Sprintf("%s: %q", e.Status, cause)
}

func (e Error) Cause() error  { return e.cause }
func (e Error) Unwrap() error { return e.cause }
