// Package offacts fetches packaged-food data from Open Food Facts and
// converts it to the nutrition label schema.
//
// Lookups never fail loudly. Anything short of a well-formed product comes
// back as a *NotFoundError, which matches ErrNotFound, so the caller can
// fall back to the label reading alone.
package offacts
