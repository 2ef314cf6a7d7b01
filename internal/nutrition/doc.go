// Package nutrition turns noisy label text into structured nutrition facts.
//
// The flow is Sanitize, then Parse, then optionally Reconcile with a record
// from an external product database. A Record holds per-100 g quantities as
// nullable values: nil means "not found", which is the common case for OCR
// output and never an error.
//
// Values entering a Record through Set or ParseManualValue are validated.
// Negative and non-finite numbers are rejected with a *FieldError whose
// message names the offending field.
package nutrition
