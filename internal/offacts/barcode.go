package offacts

import (
	"fmt"
	"strings"
)

// Barcode length bounds (EAN-8 through EAN-13).
const (
	MinBarcodeLen = 8
	MaxBarcodeLen = 13
)

// ValidateBarcode trims code and checks it is 8 to 13 ASCII digits. It runs
// before any network call.
func ValidateBarcode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < MinBarcodeLen || len(code) > MaxBarcodeLen {
		return "", fmt.Errorf("%w: got %d characters", ErrInvalidBarcode, len(code))
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidBarcode, code)
		}
	}
	return code, nil
}
