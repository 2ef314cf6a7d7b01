package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createPatternImage creates an image with red, green, blue and white
// quadrants.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCropPanel(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := CropPanel(img, Region{0, 0, 50, 50})
	if err != nil {
		t.Fatalf("CropPanel failed: %v", err)
	}

	if cropped.Bounds().Dx() != 50 || cropped.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}

	r, g, b, _ := cropped.At(25, 25).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("cropped colour: got (%d,%d,%d), want (255,0,0)", r>>8, g>>8, b>>8)
	}
}

func TestCropPanel_InvalidRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name string
		r    Region
	}{
		{"x1 negative", Region{-1, 0, 50, 50}},
		{"y2 too large", Region{0, 0, 50, 101}},
		{"x1 >= x2", Region{50, 0, 50, 50}},
		{"y1 > y2", Region{0, 60, 50, 50}},
		{"zero area", Region{50, 50, 50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropPanel(img, tt.r)
			if !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("expected ErrInvalidRegion, got %v", err)
			}
		})
	}
}

func TestNamedRegion(t *testing.T) {
	img := createPatternImage(100, 80)

	tests := []struct {
		name string
		want Region
	}{
		{"full", Region{0, 0, 100, 80}},
		{"top-left", Region{0, 0, 50, 40}},
		{"bottom-right", Region{50, 40, 100, 80}},
		{"top-half", Region{0, 0, 100, 40}},
		{"right-half", Region{50, 0, 100, 80}},
		{"center", Region{25, 20, 75, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NamedRegion(img, tt.name)
			if err != nil {
				t.Fatalf("NamedRegion(%s) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNamedRegion_Unknown(t *testing.T) {
	img := createPatternImage(10, 10)

	for _, name := range []string{"", "middle", "TOP-LEFT"} {
		if _, err := NamedRegion(img, name); !errors.Is(err, ErrInvalidRegion) {
			t.Errorf("NamedRegion(%q): expected ErrInvalidRegion, got %v", name, err)
		}
	}
}

func TestNamedRegion_OffsetOrigin(t *testing.T) {
	img := createPatternImage(100, 100).SubImage(image.Rect(10, 20, 60, 80))

	r, err := NamedRegion(img, "full")
	if err != nil {
		t.Fatalf("NamedRegion failed: %v", err)
	}
	if _, err := CropPanel(img, r); err != nil {
		t.Errorf("full region of a sub-image should crop cleanly: %v", err)
	}
}

func TestNewPreview_Shrinks(t *testing.T) {
	img := createPatternImage(400, 200)

	p, err := NewPreview(img, 100)
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	if p.Width != 100 || p.Height != 50 {
		t.Errorf("preview size: got %dx%d, want 100x50", p.Width, p.Height)
	}
	if p.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", p.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(p.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("preview is not a PNG: %v", err)
	}
}

func TestNewPreview_KeepsSmallImages(t *testing.T) {
	p, err := NewPreview(createPatternImage(40, 30), 100)
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	if p.Width != 40 || p.Height != 30 {
		t.Errorf("preview size: got %dx%d, want 40x30", p.Width, p.Height)
	}
}
