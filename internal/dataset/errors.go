package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema reports a required column that is absent from a table.
	ErrSchema = errors.New("schema error")
	// ErrValidation reports a parameter or data condition a stage cannot accept.
	ErrValidation = errors.New("validation error")
)

func SchemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
