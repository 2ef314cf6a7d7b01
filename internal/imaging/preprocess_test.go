package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createLabelImage renders lines of dark text on a light background, roughly
// what a cropped nutrition panel looks like.
func createLabelImage(width, height int, lines ...string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{245, 240, 230, 255}), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{20, 20, 20, 255}),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(10), Y: fixed.I(20 + i*16)}
		d.DrawString(line)
	}
	return img
}

func assertBinary(t *testing.T, img *image.Gray) (foreground int) {
	t.Helper()
	for _, v := range img.Pix {
		switch v {
		case 255:
			foreground++
		case 0:
		default:
			t.Fatalf("pixel value %d is neither 0 nor 255", v)
		}
	}
	return foreground
}

func TestPreprocess_UpscalesSmallImages(t *testing.T) {
	img := createLabelImage(320, 120, "energy 250 kcal", "sugars 12 g")

	out := Preprocess(img, PreprocessOptions{})

	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 240 {
		t.Errorf("output size: got %dx%d, want 640x240", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestPreprocess_KeepsLargeImageSize(t *testing.T) {
	img := createLabelImage(700, 500, "protein 5 g")

	out := Preprocess(img, PreprocessOptions{})

	if out.Bounds().Dx() != 700 || out.Bounds().Dy() != 500 {
		t.Errorf("output size: got %dx%d, want 700x500", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestPreprocess_TextBecomesForeground(t *testing.T) {
	img := createLabelImage(320, 120, "energy 250 kcal", "fat 9 g", "salt 1.2 g")

	out := Preprocess(img, PreprocessOptions{})

	fg := assertBinary(t, out)
	if fg == 0 {
		t.Fatal("expected text strokes to produce foreground pixels")
	}
	total := len(out.Pix)
	if fg > total/2 {
		t.Errorf("foreground dominates the image (%d of %d); polarity looks wrong", fg, total)
	}
}

func fillNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestDenoise_KeepsThinStrokes(t *testing.T) {
	img := fillNRGBA(40, 40, color.NRGBA{230, 230, 230, 255})
	// One-pixel vertical stroke and a two-pixel horizontal one, both far
	// thinner than the 5x5 window.
	for y := 5; y < 35; y++ {
		img.SetNRGBA(20, y, color.NRGBA{30, 30, 30, 255})
	}
	for x := 5; x < 15; x++ {
		img.SetNRGBA(x, 10, color.NRGBA{30, 30, 30, 255})
		img.SetNRGBA(x, 11, color.NRGBA{30, 30, 30, 255})
	}

	out := denoise(img, denoiseRadius, denoiseStrength)

	for y := 5; y < 35; y++ {
		if r := out.RGBAAt(20, y).R; r != 30 {
			t.Fatalf("vertical stroke lost at y=%d: got %d", y, r)
		}
	}
	for x := 5; x < 15; x++ {
		if r := out.RGBAAt(x, 10).R; r != 30 {
			t.Fatalf("horizontal stroke lost at x=%d: got %d", x, r)
		}
	}
	if r := out.RGBAAt(30, 30).R; r != 230 {
		t.Errorf("background changed: got %d", r)
	}
}

func TestDenoise_SmoothsSensorNoise(t *testing.T) {
	img := fillNRGBA(20, 20, color.NRGBA{200, 200, 200, 255})
	img.SetNRGBA(8, 8, color.NRGBA{212, 190, 205, 255})
	img.SetNRGBA(12, 5, color.NRGBA{188, 188, 188, 255})

	out := denoise(img, denoiseRadius, denoiseStrength)

	for _, p := range []image.Point{{8, 8}, {12, 5}} {
		if c := out.RGBAAt(p.X, p.Y); c != (color.RGBA{200, 200, 200, 255}) {
			t.Errorf("noise at %v not smoothed: got %v", p, c)
		}
	}
}

func TestPreprocess_StrokesSurviveDenoise(t *testing.T) {
	// Large enough to skip the upscale, so basicfont strokes stay one or
	// two pixels wide through the 5x5 denoise window.
	img := createLabelImage(640, 480, "energy 250 kcal", "sugars 12 g", "protein 5 g")

	out := Preprocess(img, PreprocessOptions{})
	assertBinary(t, out)

	// basicfont glyphs span 11 pixels above the baseline and 2 below.
	for i := 0; i < 3; i++ {
		top, bottom := 20+i*16-11, 20+i*16+2
		fg := 0
		for y := top; y < bottom; y++ {
			for x := 10; x < 130; x++ {
				if out.GrayAt(x, y).Y == 255 {
					fg++
				}
			}
		}
		if fg < 50 {
			t.Errorf("line %d: only %d foreground pixels left after denoise", i, fg)
		}
	}
}

func TestPreprocess_BlankImageHasNoForeground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	out := Preprocess(img, PreprocessOptions{})

	if fg := assertBinary(t, out); fg != 0 {
		t.Errorf("blank image produced %d foreground pixels", fg)
	}
}

func TestPreprocess_NonZeroOrigin(t *testing.T) {
	full := createLabelImage(400, 200, "carbohydrates 30 g")
	sub := full.SubImage(image.Rect(50, 20, 350, 180))

	out := Preprocess(sub, PreprocessOptions{})

	if out.Bounds().Min != (image.Point{}) {
		t.Errorf("output origin: got %v, want (0,0)", out.Bounds().Min)
	}
	if out.Bounds().Dx() != 600 || out.Bounds().Dy() != 320 {
		t.Errorf("output size: got %dx%d, want 600x320", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestPreprocess_WritesDebugArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug_images")
	at := time.Unix(1700000000, 0)

	Preprocess(createLabelImage(100, 60, "fibre 2 g"), PreprocessOptions{
		DebugDir: dir,
		Now:      func() time.Time { return at },
	})

	path := filepath.Join(dir, "enhanced_1700000000.png")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("debug artifact missing: %v", err)
	}

	img, format, err := Open(path)
	if err != nil {
		t.Fatalf("debug artifact not decodable: %v", err)
	}
	if format != "png" {
		t.Errorf("format: got %s, want png", format)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 120 {
		t.Errorf("artifact size: got %dx%d, want 200x120", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestPreprocess_DebugWriteFailureIsIgnored(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	out := Preprocess(createLabelImage(100, 60, "salt 1 g"), PreprocessOptions{DebugDir: blocker})
	if out == nil {
		t.Fatal("Preprocess returned nil after a debug write failure")
	}
}

func TestNeedsUpscale(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{640, 480, false},
		{639, 480, true},
		{640, 479, true},
		{1920, 1080, false},
		{100, 2000, true},
	}
	for _, tt := range tests {
		if got := needsUpscale(tt.w, tt.h); got != tt.want {
			t.Errorf("needsUpscale(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestEnhanceLuminance_PreservesNeutralGray(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 128, 128, 128, 255
	}

	out := enhanceLuminance(src)

	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := int(out.Pix[i]), int(out.Pix[i+1]), int(out.Pix[i+2])
		if abs(r-g) > 2 || abs(g-b) > 2 {
			t.Fatalf("neutral gray gained a colour cast: (%d,%d,%d)", r, g, b)
		}
		if out.Pix[i+3] != 255 {
			t.Fatalf("alpha changed: %d", out.Pix[i+3])
		}
	}
}

func TestCloseGaps_JoinsSplitStroke(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 5))
	for x := 2; x < 18; x++ {
		if x == 10 {
			continue
		}
		img.SetGray(x, 2, color.Gray{Y: 255})
	}

	out := closeGaps(img, closingRadius)

	if out.GrayAt(10, 2).Y != 255 {
		t.Error("one-pixel gap in a stroke was not closed")
	}
	if out.GrayAt(0, 0).Y != 0 {
		t.Error("closing should not add foreground far from strokes")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
