package reduction

import "github.com/pixbake/pngopt/internal/pngimage"

// TryBitDepthDrop fires for Gray or Indexed images whose current bit
// depth is wider than the narrowest legal depth that can still hold the
// largest sample value actually used, and repacks every row at that
// depth (original_source/reduction/mod.rs reduce_bit_depth). Only the
// four sub-byte depths PNG allows for these color types are considered:
// 1, 2, 4 and 8 bits.
func TryBitDepthDrop(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) {
		return img, false
	}
	if img.IHDR.ColorType != pngimage.ColorGray && img.IHDR.ColorType != pngimage.ColorIndexed {
		return img, false
	}
	depth := int(img.IHDR.BitDepth)
	if depth == 1 {
		return img, false
	}
	if depth > 8 {
		// 16-bit samples belong to TryStrip16To8Strict, which requires
		// the high and low bytes to match exactly; this function only
		// ever narrows within the 1/2/4/8 sub-byte ladder.
		return img, false
	}
	width := int(img.IHDR.Width)

	if img.IHDR.ColorType == pngimage.ColorGray && img.Transparency != nil {
		// A gray tRNS key narrower than the current depth would change
		// meaning if samples were repacked at a smaller depth while the
		// key stayed wide, so grayscale bit-depth reduction is skipped
		// whenever a transparency key is present.
		return img, false
	}

	var maxVal uint64
	for _, row := range img.Pixels.Rows {
		for _, v := range pngimage.UnpackRow(row, width, depth) {
			if v > maxVal {
				maxVal = v
			}
		}
	}

	target := narrowestDepth(maxVal)
	if target >= depth {
		return img, false
	}

	out := img.Clone()
	out.IHDR.BitDepth = uint8(target)
	for y, row := range img.Pixels.Rows {
		values := pngimage.UnpackRow(row, width, depth)
		out.Pixels.Rows[y] = pngimage.PackRow(values, target)
	}
	return out, true
}

func narrowestDepth(maxVal uint64) int {
	switch {
	case maxVal <= 1:
		return 1
	case maxVal <= 3:
		return 2
	case maxVal <= 15:
		return 4
	default:
		return 8
	}
}
