package detection

import (
	"image"

	"github.com/disintegration/imaging"
)

// edgeThreshold is the minimum grayscale step between neighbours that counts
// as an edge.
const edgeThreshold = 30

// edgeMap marks pixels whose right or lower neighbour differs by more than
// edgeThreshold. Border pixels are never edges. Indexing is edges[y][x]
// relative to the image origin.
func edgeMap(img image.Image) [][]bool {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()

	at := func(x, y int) int {
		return int(gray.Pix[y*gray.Stride+x*4])
	}

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			c := at(x, y)
			if abs(c-at(x+1, y)) > edgeThreshold || abs(c-at(x, y+1)) > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// horizontalScore is the share of edge runs in the window that run along
// rows rather than columns. Text rows score high.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontal, vertical := 0, 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontal++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					vertical++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
