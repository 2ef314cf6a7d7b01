package nutrition

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeValue is returned when a nutrient quantity is below zero.
	ErrNegativeValue = errors.New("value must not be negative")

	// ErrInvalidValue is returned when a nutrient quantity is not a finite
	// number.
	ErrInvalidValue = errors.New("value is not a number")

	// ErrUnknownNutrient is returned for a key outside the record schema.
	ErrUnknownNutrient = errors.New("unknown nutrient")
)

// FieldError reports a rejected value for one nutrient. Its message is
// shown to the operator as is.
type FieldError struct {
	Field Nutrient
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNegativeValue):
		return fmt.Sprintf("%s: %q is negative; enter a value of 0 or more", e.Field, e.Value)
	case errors.Is(e.Err, ErrInvalidValue):
		return fmt.Sprintf("%s: %q is not a number", e.Field, e.Value)
	case errors.Is(e.Err, ErrUnknownNutrient):
		return fmt.Sprintf("%q is not a recognized nutrient", string(e.Field))
	default:
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
