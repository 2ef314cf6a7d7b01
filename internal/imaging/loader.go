package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUndecodable is returned when the input is not a raster image in any
// registered format. Callers must reject such uploads before a session exists.
var ErrUndecodable = errors.New("image could not be decoded")

// Decode reads a product-label photograph from r.
//
// Returns:
//   - image.Image: The decoded image.
//   - string: The format name reported by the decoder ("png", "jpeg", "gif",
//     "bmp", "tiff" or "webp").
//   - error: Wraps ErrUndecodable if the data is not a supported image.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrUndecodable)
	}
	return img, format, nil
}

// Open decodes the image stored at path.
//
// A missing or unreadable file is reported as a plain I/O error; a readable
// file with unsupported content wraps ErrUndecodable.
func Open(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// ImageInfo describes a decoded label photograph.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder format name.
	Format string `json:"format"`

	// Upscaled reports whether Preprocess will enlarge the image before OCR.
	Upscaled bool `json:"upscaled"`
}

// Describe returns the metadata reported back to the operator for an upload.
func Describe(img image.Image, format string) ImageInfo {
	b := img.Bounds()
	return ImageInfo{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   format,
		Upscaled: needsUpscale(b.Dx(), b.Dy()),
	}
}
