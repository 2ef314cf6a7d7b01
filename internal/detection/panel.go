package detection

import (
	"errors"
	"image"
	"math"
	"sort"

	labelimg "github.com/ironsheep/labelscan/internal/imaging"
)

// ErrNoPanel is returned when no part of the photograph looks like text.
var ErrNoPanel = errors.New("no nutrition panel found")

// DefaultMinConfidence is the window confidence LocatePanel requires.
const DefaultMinConfidence = 0.3

// Text tends to fall inside this edge density band; flat packaging is
// sparser and photographic texture denser.
const (
	minDensity    = 0.05
	maxDensity    = 0.4
	targetDensity = 0.2
)

// windows are the sliding window sizes, from small print to headings.
var windows = []struct{ w, h int }{
	{80, 25},
	{100, 30},
	{150, 40},
	{200, 50},
}

// Block is a merged run of text-like windows.
type Block struct {
	Region     labelimg.Region `json:"region"`
	Confidence float64         `json:"confidence"`
	Area       int             `json:"area"`

	// Windows is how many candidate windows merged into the block.
	Windows int `json:"windows"`
}

// score ranks blocks: a large block of many confident windows is the panel.
func (b Block) score() float64 {
	return b.Confidence * float64(b.Windows)
}

// TextBlocks returns the text-like blocks of img, best panel candidate
// first. Coordinates are in img's coordinate space.
func TextBlocks(img image.Image, minConfidence float64) []Block {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := edgeMap(img)

	var candidates []Block
	for _, ws := range windows {
		stepX, stepY := ws.w/2, ws.h/2
		for y := 0; y+ws.h <= height; y += stepY {
			for x := 0; x+ws.w <= width; x += stepX {
				count := 0
				for wy := 0; wy < ws.h; wy++ {
					row := edges[y+wy][x : x+ws.w]
					for _, e := range row {
						if e {
							count++
						}
					}
				}

				area := ws.w * ws.h
				density := float64(count) / float64(area)
				if density < minDensity || density > maxDensity {
					continue
				}

				confidence := horizontalScore(edges, x, y, ws.w, ws.h) * (1 - math.Abs(density-targetDensity)/targetDensity)
				if confidence < minConfidence {
					continue
				}
				candidates = append(candidates, Block{
					Region: labelimg.Region{
						X1: x + bounds.Min.X,
						Y1: y + bounds.Min.Y,
						X2: x + ws.w + bounds.Min.X,
						Y2: y + ws.h + bounds.Min.Y,
					},
					Confidence: math.Round(confidence*1000) / 1000,
					Area:       area,
					Windows:    1,
				})
			}
		}
	}

	blocks := mergeBlocks(candidates)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].score() > blocks[j].score()
	})
	return blocks
}

// LocatePanel returns the region of img most likely to hold the nutrition
// panel, padded by a small margin and clamped to the image.
func LocatePanel(img image.Image) (labelimg.Region, error) {
	blocks := TextBlocks(img, DefaultMinConfidence)
	if len(blocks) == 0 {
		return labelimg.Region{}, ErrNoPanel
	}
	return pad(blocks[0].Region, img.Bounds()), nil
}

// mergeBlocks unions overlapping blocks until none overlap.
func mergeBlocks(blocks []Block) []Block {
	merged := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		merged = append(merged, b)
		for {
			last := len(merged) - 1
			joined := false
			for i := 0; i < last; i++ {
				if !overlaps(merged[i].Region, merged[last].Region) {
					continue
				}
				merged[i] = join(merged[i], merged[last])
				merged[last] = merged[i]
				merged = append(merged[:i], merged[i+1:]...)
				joined = true
				break
			}
			if !joined {
				break
			}
		}
	}
	return merged
}

func overlaps(a, b labelimg.Region) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func join(a, b Block) Block {
	r := labelimg.Region{
		X1: min(a.Region.X1, b.Region.X1),
		Y1: min(a.Region.Y1, b.Region.Y1),
		X2: max(a.Region.X2, b.Region.X2),
		Y2: max(a.Region.Y2, b.Region.Y2),
	}
	return Block{
		Region:     r,
		Confidence: math.Max(a.Confidence, b.Confidence),
		Area:       (r.X2 - r.X1) * (r.Y2 - r.Y1),
		Windows:    a.Windows + b.Windows,
	}
}

// pad grows r by 2% of the image size on each side, at least 4 pixels.
func pad(r labelimg.Region, bounds image.Rectangle) labelimg.Region {
	mx := max(4, bounds.Dx()/50)
	my := max(4, bounds.Dy()/50)
	return labelimg.Region{
		X1: max(bounds.Min.X, r.X1-mx),
		Y1: max(bounds.Min.Y, r.Y1-my),
		X2: min(bounds.Max.X, r.X2+mx),
		Y2: min(bounds.Max.Y, r.Y2+my),
	}
}
