package pngdec

import "testing"

func TestPassDimsCompleteness(t *testing.T) {
	const w, h = 8, 8
	covered := make(map[[2]int]bool)
	for _, p := range adam7Passes {
		passW, passH := passDims(w, h, p)
		for r := 0; r < passH; r++ {
			y := p.yStart + r*p.yStride
			for k := 0; k < passW; k++ {
				x := p.xStart + k*p.xStride
				key := [2]int{x, y}
				if covered[key] {
					t.Fatalf("pixel (%d,%d) covered by more than one pass", x, y)
				}
				covered[key] = true
			}
		}
	}
	if len(covered) != w*h {
		t.Fatalf("covered %d pixels, want %d", len(covered), w*h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !covered[[2]int{x, y}] {
				t.Fatalf("pixel (%d,%d) never covered", x, y)
			}
		}
	}
}

func TestPassDimsSkipsEmptyPasses(t *testing.T) {
	// A 1x1 image only has pixel (0,0), covered solely by pass 1.
	for i, p := range adam7Passes {
		passW, passH := passDims(1, 1, p)
		if i == 0 {
			if passW != 1 || passH != 1 {
				t.Fatalf("pass 1 over 1x1 image: got %dx%d, want 1x1", passW, passH)
			}
			continue
		}
		if passW != 0 && passH != 0 {
			t.Fatalf("pass %d over 1x1 image should be empty, got %dx%d", i+1, passW, passH)
		}
	}
}

func TestExpectedInterlacedSize(t *testing.T) {
	// 8x8 grayscale (8 bpp): every pass pitch is passW+1.
	got := expectedInterlacedSize(8, 8, 8)
	var want int64
	for _, p := range adam7Passes {
		pw, ph := passDims(8, 8, p)
		if pw == 0 || ph == 0 {
			continue
		}
		want += int64(ph) * int64(pw+1)
	}
	if got != want {
		t.Fatalf("expectedInterlacedSize = %d, want %d", got, want)
	}
}
