package offacts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBarcode is returned for a code that is not 8 to 13 digits.
	ErrInvalidBarcode = errors.New("barcode must be 8 to 13 digits")

	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("product not found")
)

// NotFoundError is the single failure type of a lookup. A missing product,
// an HTTP error status, a malformed payload and a transport failure all
// produce one, so callers can degrade to label-only data without
// distinguishing them.
type NotFoundError struct {
	Barcode string
	Reason  string

	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("product %s not found: %s: %v", e.Barcode, e.Reason, e.Err)
	}
	return fmt.Sprintf("product %s not found: %s", e.Barcode, e.Reason)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
