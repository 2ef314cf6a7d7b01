package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultGridSpacing is the grid pitch, in photograph pixels, used when the
// caller does not choose one.
const DefaultGridSpacing = 100

// DefaultGridColor is drawn when no colour or an unparseable one is given.
var DefaultGridColor = color.NRGBA{255, 0, 0, 160}

// GridPreview is a preview with a coordinate grid drawn on top. Grid labels
// and GridSpacing are in the coordinates of the original photograph, so they
// can be passed straight back as a crop rectangle.
type GridPreview struct {
	Preview
	GridSpacing int `json:"grid_spacing"`

	// Scale is preview pixels per photograph pixel.
	Scale float64 `json:"scale"`
}

// ParseGridColor parses "#RRGGBB". An empty string selects DefaultGridColor.
func ParseGridColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return DefaultGridColor, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid grid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: DefaultGridColor.A}, nil
}

// NewGridPreview shrinks img to fit maxSide (zero keeps the size) and draws a
// grid every spacing photograph pixels, labelling each intersection with its
// photograph coordinates.
func NewGridPreview(img image.Image, maxSide, spacing int, gridColor color.NRGBA) (*GridPreview, error) {
	if spacing <= 0 {
		spacing = DefaultGridSpacing
	}

	src := img.Bounds()
	out := imaging.Clone(img)
	if maxSide > 0 && (src.Dx() > maxSide || src.Dy() > maxSide) {
		out = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}
	scale := float64(out.Bounds().Dx()) / float64(src.Dx())

	canvas := image.NewRGBA(out.Bounds())
	draw.Draw(canvas, canvas.Bounds(), out, image.Point{}, draw.Src)
	drawGrid(canvas, src, spacing, scale, gridColor)

	data, err := EncodePNG(canvas)
	if err != nil {
		return nil, err
	}

	return &GridPreview{
		Preview: Preview{
			Width:       canvas.Bounds().Dx(),
			Height:      canvas.Bounds().Dy(),
			ImageBase64: base64.StdEncoding.EncodeToString(data),
			MimeType:    "image/png",
		},
		GridSpacing: spacing,
		Scale:       math.Round(scale*10000) / 10000,
	}, nil
}

// drawGrid draws lines at every multiple of spacing in photograph
// coordinates, mapped onto canvas by scale.
func drawGrid(canvas *image.RGBA, src image.Rectangle, spacing int, scale float64, gridColor color.NRGBA) {
	width, height := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	line := image.NewUniform(gridColor)

	var xs, ys []int
	for x := spacing; x < src.Dx(); x += spacing {
		px := int(float64(x) * scale)
		xs = append(xs, px)
		draw.Draw(canvas, image.Rect(px, 0, px+1, height), line, image.Point{}, draw.Over)
	}
	for y := spacing; y < src.Dy(); y += spacing {
		py := int(float64(y) * scale)
		ys = append(ys, py)
		draw.Draw(canvas, image.Rect(0, py, width, py+1), line, image.Point{}, draw.Over)
	}

	fg := color.RGBA{255, 255, 255, 255}
	bg := color.RGBA{0, 0, 0, 180}
	for j, py := range ys {
		for i, px := range xs {
			label := fmt.Sprintf("%d,%d", src.Min.X+(i+1)*spacing, src.Min.Y+(j+1)*spacing)
			drawLabel(canvas, px+2, py+2, label, fg, bg)
		}
	}
}

// glyphs is a 3x5 pixel font for grid coordinates.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel draws text on a filled background with its top-left at (x, y),
// clipped to the canvas.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth, labelHeight = 4, 7

	box := image.Rect(x-1, y-1, x+len(text)*charWidth, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	bounds := img.Bounds()
	cx := x
	for _, ch := range text {
		for row, bits := range glyphs[ch] {
			for col, bit := range bits {
				p := image.Pt(cx+col, y+row)
				if bit == '1' && p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
