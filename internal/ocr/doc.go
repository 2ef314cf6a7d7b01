// Package ocr runs text recognition over preprocessed nutrition labels.
//
// Recognition is attempted with a fixed cycle of five configurations, each
// pairing a Tesseract engine mode with a page segmentation mode suited to a
// particular label layout. Runner.RunAll tries every configuration and
// merges their output for a high-recall first pass; Runner.RunOne runs a
// single configuration for the operator's retry loop.
//
// Engine abstracts the recognizer. Tesseract (via gosseract) is the
// production engine and needs cgo plus the Tesseract libraries; builds
// without cgo get a stub that fails every call with ErrEngineUnavailable.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
package ocr
