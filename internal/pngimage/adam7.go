package pngimage

// Adam7 interlacing (spec glossary): seven passes, each a reduced image
// sampling every 8th pixel in a different offset/stride pattern.

// adam7Pass describes one of the seven reduced images' starting offset
// and stride, in both axes, per the PNG specification's Adam7 table.
type adam7Pass struct {
	xStart, yStart, xStride, yStride int
}

var adam7Passes = [7]adam7Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// Adam7PassDims returns the width and height of pass p (0-indexed) for a
// full image of the given dimensions. A pass with zero rows or zero
// columns is legitimately empty (spec §3: "passes with zero rows or zero
// columns are absent entirely").
func Adam7PassDims(p int, width, height uint32) (w, h uint32) {
	ap := adam7Passes[p]
	w = 0
	if int(width) > ap.xStart {
		w = (width - uint32(ap.xStart) + uint32(ap.xStride) - 1) / uint32(ap.xStride)
	}
	h = 0
	if int(height) > ap.yStart {
		h = (height - uint32(ap.yStart) + uint32(ap.yStride) - 1) / uint32(ap.yStride)
	}
	return w, h
}

// Adam7PixelCoord maps a pixel at (px, py) within pass p back to its
// coordinate in the full image.
func Adam7PixelCoord(p int, px, py int) (x, y int) {
	ap := adam7Passes[p]
	return ap.xStart + px*ap.xStride, ap.yStart + py*ap.yStride
}
