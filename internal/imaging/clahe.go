package imaging

import "math"

// equalizeCLAHE applies contrast-limited adaptive histogram equalization to
// a single 8-bit plane of size w x h.
//
// The plane is split into a tilesX x tilesY grid. Each tile gets its own
// clipped histogram and lookup table; every output pixel is a bilinear blend
// of the four nearest tile tables, which avoids visible tile seams.
//
// clipLimit follows the usual convention: a histogram bin may hold at most
// clipLimit * tileArea / 256 samples, and the excess is redistributed evenly.
func equalizeCLAHE(plane []uint8, w, h, tilesX, tilesY int, clipLimit float64) []uint8 {
	out := make([]uint8, len(plane))
	if w == 0 || h == 0 {
		return out
	}

	if tilesX > w {
		tilesX = w
	}
	if tilesY > h {
		tilesY = h
	}
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	// Ceil division may leave the last row/column of the grid empty.
	tilesX = (w + tileW - 1) / tileW
	tilesY = (h + tileH - 1) / tileH

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			luts[ty*tilesX+tx] = tileLUT(plane, w, x0, y0, x1, y1, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0, ty1, ay := neighbours(fy, tilesY)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0, tx1, ax := neighbours(fx, tilesX)

			v := plane[y*w+x]
			top := (1-ax)*float64(luts[ty0*tilesX+tx0][v]) + ax*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-ax)*float64(luts[ty1*tilesX+tx0][v]) + ax*float64(luts[ty1*tilesX+tx1][v])
			out[y*w+x] = clampByte((1-ay)*top + ay*bottom)
		}
	}
	return out
}

// tileLUT builds the clipped-histogram equalization table for one tile.
func tileLUT(plane []uint8, stride, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := plane[y*stride+x0 : y*stride+x1]
		for _, v := range row {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	bonus, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += bonus
		if i < rest {
			hist[i]++
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(area)
	cdf := 0
	for i := range hist {
		cdf += hist[i]
		lut[i] = clampByte(float64(cdf) * scale)
	}
	return lut
}

// neighbours returns the two tile indices surrounding the fractional tile
// coordinate f and the blend weight of the second one.
func neighbours(f float64, n int) (int, int, float64) {
	i0 := int(math.Floor(f))
	weight := f - float64(i0)
	i1 := i0 + 1
	if i0 < 0 {
		i0, weight = 0, 0
	}
	if i1 >= n {
		i1 = n - 1
	}
	if i0 >= n {
		i0 = n - 1
	}
	return i0, i1, weight
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
