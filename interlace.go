package pngdec

// adam7Pass is one of the seven Adam7 sub-images: its pixels start at
// (xStart, yStart) in the full image and repeat every (xStride,
// yStride) pixels.
type adam7Pass struct {
	xStart, yStart, xStride, yStride int
}

var adam7Passes = [7]adam7Pass{
	{xStart: 0, yStart: 0, xStride: 8, yStride: 8},
	{xStart: 4, yStart: 0, xStride: 8, yStride: 8},
	{xStart: 0, yStart: 4, xStride: 4, yStride: 8},
	{xStart: 2, yStart: 0, xStride: 4, yStride: 4},
	{xStart: 0, yStart: 2, xStride: 2, yStride: 4},
	{xStart: 1, yStart: 0, xStride: 2, yStride: 2},
	{xStart: 0, yStart: 1, xStride: 1, yStride: 2},
}

func ceilDiv(numer, denom int) int {
	if numer <= 0 {
		return 0
	}
	return (numer + denom - 1) / denom
}

// passDims returns the pixel width and height of pass p over a
// width x height image. Either can be zero, meaning the pass
// contributes no rows and is skipped entirely.
func passDims(width, height int, p adam7Pass) (passW, passH int) {
	passW = ceilDiv(width-p.xStart, p.xStride)
	passH = ceilDiv(height-p.yStart, p.yStride)
	return
}

// passBytesPerRow computes a pass's own filtered-row pitch (including
// the leading filter-tag byte) for an image of the given bits per
// pixel.
func passBytesPerRow(passW, bitsPerPixel int) int {
	return (passW*bitsPerPixel+7)/8 + 1
}

// expectedInterlacedSize sums passHeight_i * (1 + passPitch_i) over
// every non-empty pass, the exact decompressed byte count the
// inflate feeder must consume for an Adam7 image.
func expectedInterlacedSize(width, height, bitsPerPixel int) int64 {
	var total int64
	for _, p := range adam7Passes {
		passW, passH := passDims(width, height, p)
		if passW == 0 || passH == 0 {
			continue
		}
		total += int64(passH) * int64(passBytesPerRow(passW, bitsPerPixel))
	}
	return total
}
