package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// ErrInvalidRegion is returned when a crop region is empty or falls outside
// the photograph.
var ErrInvalidRegion = errors.New("invalid crop region")

// Region is a rectangle in image coordinates. (X1, Y1) is inclusive and
// (X2, Y2) is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// NamedRegion resolves a coarse placement of the nutrition panel within the
// photograph ("top-half", "bottom-right", "center", ...) to pixel
// coordinates. Offsets are relative to the image origin.
func NamedRegion(img image.Image, name string) (Region, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	midX, midY := w/2, h/2

	var r Region
	switch name {
	case "full":
		r = Region{0, 0, w, h}
	case "top-left":
		r = Region{0, 0, midX, midY}
	case "top-right":
		r = Region{midX, 0, w, midY}
	case "bottom-left":
		r = Region{0, midY, midX, h}
	case "bottom-right":
		r = Region{midX, midY, w, h}
	case "top-half":
		r = Region{0, 0, w, midY}
	case "bottom-half":
		r = Region{0, midY, w, h}
	case "left-half":
		r = Region{0, 0, midX, h}
	case "right-half":
		r = Region{midX, 0, w, h}
	case "center":
		qW, qH := w/4, h/4
		r = Region{qW, qH, w - qW, h - qH}
	default:
		return Region{}, fmt.Errorf("%w: unknown region %q", ErrInvalidRegion, name)
	}

	r.X1 += b.Min.X
	r.X2 += b.Min.X
	r.Y1 += b.Min.Y
	r.Y2 += b.Min.Y
	return r, nil
}

// CropPanel extracts the nutrition panel from a larger photograph so that
// packaging artwork around it does not reach OCR.
func CropPanel(img image.Image, r Region) (image.Image, error) {
	bounds := img.Bounds()

	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, fmt.Errorf("%w: x1 must be < x2, y1 must be < y2", ErrInvalidRegion)
	}
	if !r.Rect().In(bounds) {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			ErrInvalidRegion, r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	return imaging.Crop(img, r.Rect()), nil
}

// EncodePNG serializes img as PNG. OCR engines and previews both consume
// this form.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview is a base64 PNG rendition of an image returned to the operator.
type Preview struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NewPreview encodes img for display, shrinking it so that neither side
// exceeds maxSide. A maxSide of zero keeps the original size.
func NewPreview(img image.Image, maxSide int) (*Preview, error) {
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	return &Preview{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}
