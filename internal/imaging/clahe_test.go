package imaging

import "testing"

func TestEqualizeCLAHE_UniformPlaneStaysUniform(t *testing.T) {
	w, h := 48, 36
	plane := make([]uint8, w*h)
	for i := range plane {
		plane[i] = 90
	}

	out := equalizeCLAHE(plane, w, h, 12, 12, 2.5)

	first := out[0]
	for i, v := range out {
		if v != first {
			t.Fatalf("pixel %d: got %d, want uniform %d", i, v, first)
		}
	}
}

func TestEqualizeCLAHE_StretchesLowContrast(t *testing.T) {
	w, h := 64, 64
	plane := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// values between 100 and 131
			plane[y*w+x] = uint8(100 + (x+y)%32)
		}
	}

	out := equalizeCLAHE(plane, w, h, 4, 4, 2.5)

	inMin, inMax := span(plane)
	outMin, outMax := span(out)
	if int(outMax)-int(outMin) <= int(inMax)-int(inMin) {
		t.Errorf("contrast not increased: input span %d-%d, output span %d-%d", inMin, inMax, outMin, outMax)
	}
}

func TestEqualizeCLAHE_PreservesOrdering(t *testing.T) {
	w, h := 32, 32
	plane := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			plane[y*w+x] = uint8(x * 8)
		}
	}

	out := equalizeCLAHE(plane, w, h, 1, 1, 2.5)

	for y := 0; y < h; y++ {
		for x := 1; x < w; x++ {
			if out[y*w+x] < out[y*w+x-1] {
				t.Fatalf("row %d: equalization is not monotonic at x=%d", y, x)
			}
		}
	}
}

func TestEqualizeCLAHE_TinyPlane(t *testing.T) {
	plane := []uint8{10, 200, 30, 40, 50, 60}

	out := equalizeCLAHE(plane, 3, 2, 12, 12, 2.5)

	if len(out) != len(plane) {
		t.Fatalf("output length: got %d, want %d", len(out), len(plane))
	}
}

func TestEqualizeCLAHE_Empty(t *testing.T) {
	if out := equalizeCLAHE(nil, 0, 0, 12, 12, 2.5); len(out) != 0 {
		t.Errorf("expected empty output, got %d values", len(out))
	}
}

func TestNeighbours(t *testing.T) {
	tests := []struct {
		name       string
		f          float64
		n          int
		wantI0     int
		wantI1     int
		wantWeight float64
	}{
		{"before first tile centre", -0.25, 4, 0, 0, 0},
		{"between tiles", 1.25, 4, 1, 2, 0.25},
		{"past last tile centre", 3.4, 4, 3, 3, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i0, i1, w := neighbours(tt.f, tt.n)
			if i0 != tt.wantI0 || i1 != tt.wantI1 {
				t.Errorf("indices: got (%d,%d), want (%d,%d)", i0, i1, tt.wantI0, tt.wantI1)
			}
			if diff := w - tt.wantWeight; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("weight: got %f, want %f", w, tt.wantWeight)
			}
		})
	}
}

func span(p []uint8) (uint8, uint8) {
	lo, hi := p[0], p[0]
	for _, v := range p {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
