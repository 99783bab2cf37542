package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation id is absent from its order's
// freshly fetched list.
var ErrNotFound = errors.New("not found")

// ValidationError is a precondition violation detected before any procedure
// call. The message is user-facing; no call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a local precondition violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
