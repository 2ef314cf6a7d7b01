//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// LabelWhitelist restricts recognition to characters a nutrition panel
// needs.
const LabelWhitelist = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,%"

// Tesseract is unavailable without cgo. Every call fails with
// ErrEngineUnavailable, which the runner treats like any other failed
// configuration.
type Tesseract struct {
	Language       string
	TessdataPrefix string
	Whitelist      string
}

// NewTesseract returns a Tesseract engine for the given language.
func NewTesseract(language, tessdataPrefix string) *Tesseract {
	return &Tesseract{Language: language, TessdataPrefix: tessdataPrefix}
}

// Recognize always fails in builds without cgo.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray, cfg Config) (string, error) {
	return "", ErrEngineUnavailable
}

// Version reports that no engine is linked.
func Version() string {
	return "unavailable (built without cgo)"
}
