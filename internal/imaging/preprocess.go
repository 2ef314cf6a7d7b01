package imaging

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Tuning constants for nutrition-label photographs.
const (
	// MinOCRWidth and MinOCRHeight are the smallest dimensions passed to OCR
	// without upscaling. Recognition degrades sharply below this resolution.
	MinOCRWidth  = 640
	MinOCRHeight = 480

	claheClipLimit = 2.5
	claheTiles     = 12
	labelGamma     = 1.2

	// denoiseRadius gives a 5x5 median window. Channel deviations from the
	// median above denoiseStrength are kept as detail.
	denoiseRadius   = 2
	denoiseStrength = 24
	blurRadius      = 1

	// thresholdRadius gives a 21x21 neighbourhood for the local mean.
	thresholdRadius = 10
	thresholdOffset = 8

	closingRadius = 1
)

// PreprocessOptions controls the side channel of Preprocess. The zero value
// disables the debug artifact and logs through log.Default().
type PreprocessOptions struct {
	// DebugDir, when non-empty, receives the binarized image as
	// enhanced_<unix-seconds>.png. Write failures are logged and ignored.
	DebugDir string

	// Now stamps the debug artifact name. Defaults to time.Now.
	Now func() time.Time

	Logger *log.Logger
}

// Preprocess normalizes and binarizes a decoded label photograph for OCR.
//
// The stages run in a fixed order:
//
//  1. 2x Catmull-Rom upscale when the image is smaller than 640x480
//  2. CLAHE (clip 2.5, 12x12 tiles) on the CIE Lab L channel only
//  3. Gamma 1.2 on the L channel to lift midtones
//  4. Recomposition back to RGB
//  5. Edge-preserving median denoise
//  6. Grayscale and a small Gaussian blur
//  7. Inverted adaptive threshold: text becomes white (255) foreground
//  8. Morphological closing to reconnect broken strokes
//
// The result is a binary *image.Gray holding only 0 and 255. Preprocess never
// fails for a decoded image; the caller is responsible for decoding.
func Preprocess(img image.Image, opts PreprocessOptions) *image.Gray {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	src := imaging.Clone(img)
	if w, h := src.Bounds().Dx(), src.Bounds().Dy(); needsUpscale(w, h) {
		src = imaging.Resize(src, w*2, h*2, imaging.CatmullRom)
	}

	enhanced := enhanceLuminance(src)
	denoised := denoise(enhanced, denoiseRadius, denoiseStrength)

	gray := effect.Grayscale(denoised)
	smoothed := blur.Gaussian(gray, blurRadius)

	binary := adaptiveThresholdInv(smoothed, thresholdRadius, thresholdOffset)
	binary = closeGaps(binary, closingRadius)

	if opts.DebugDir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if path, err := saveDebugArtifact(binary, opts.DebugDir, now()); err != nil {
			logger.Printf("preprocess: debug artifact not written: %v", err)
		} else {
			logger.Printf("preprocess: debug artifact %s", path)
		}
	}

	return binary
}

func needsUpscale(w, h int) bool {
	return w < MinOCRWidth || h < MinOCRHeight
}

// enhanceLuminance equalizes and gamma-corrects the L channel in CIE Lab
// space while leaving chroma untouched, then converts back to RGB.
func enhanceLuminance(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := make([]uint8, w*h)
	chromaA := make([]float64, w*h)
	chromaB := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x+b.Min.X, y+b.Min.Y)
			c := colorful.Color{
				R: float64(src.Pix[i]) / 255,
				G: float64(src.Pix[i+1]) / 255,
				B: float64(src.Pix[i+2]) / 255,
			}
			l, a, bb := c.Lab()
			lum[y*w+x] = clampByte(l * 255)
			chromaA[y*w+x] = a
			chromaB[y*w+x] = bb
		}
	}

	lum = equalizeCLAHE(lum, w, h, claheTiles, claheTiles, claheClipLimit)

	lumImg := &image.Gray{Pix: lum, Stride: w, Rect: image.Rect(0, 0, w, h)}
	corrected := adjust.Gamma(lumImg, labelGamma)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := float64(corrected.Pix[corrected.PixOffset(x, y)]) / 255
			r, g, bb := colorful.Lab(l, chromaA[y*w+x], chromaB[y*w+x]).Clamped().RGB255()
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = bb
			out.Pix[i+3] = src.Pix[src.PixOffset(x+b.Min.X, y+b.Min.Y)+3]
		}
	}
	return out
}

// denoise replaces a pixel by its neighbourhood median only when every
// channel lies within strength of it. Low-amplitude sensor noise is smoothed
// while text strokes, which differ from the median by far more, survive even
// when they are thinner than the window.
func denoise(src image.Image, radius float64, strength int) *image.RGBA {
	out := clone.AsRGBA(src)
	median := effect.Median(out, radius)

	for i := 0; i+3 < len(out.Pix); i += 4 {
		near := true
		for c := 0; c < 3; c++ {
			d := int(out.Pix[i+c]) - int(median.Pix[i+c])
			if d < -strength || d > strength {
				near = false
				break
			}
		}
		if near {
			copy(out.Pix[i:i+4], median.Pix[i:i+4])
		}
	}
	return out
}

// adaptiveThresholdInv marks a pixel as foreground (255) when it is darker
// than its Gaussian-weighted neighbourhood mean minus offset.
func adaptiveThresholdInv(src *image.RGBA, radius float64, offset int) *image.Gray {
	b := src.Bounds()
	mean := blur.Gaussian(src, radius)

	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(src.Pix[src.PixOffset(x+b.Min.X, y+b.Min.Y)])
			m := int(mean.Pix[mean.PixOffset(x, y)])
			if v <= m-offset {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// closeGaps performs a morphological closing (dilate then erode) on a binary
// image so that strokes split by one or two pixels join up again.
func closeGaps(src *image.Gray, radius float64) *image.Gray {
	closed := effect.Erode(effect.Dilate(src, radius), radius)

	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if closed.Pix[closed.PixOffset(x, y)] >= 128 {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// saveDebugArtifact writes the binarized image into dir and returns its path.
func saveDebugArtifact(img image.Image, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("enhanced_%d.png", at.Unix()))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save debug image: %w", err)
	}
	return path, nil
}
