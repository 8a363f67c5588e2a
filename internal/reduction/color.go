package reduction

import "github.com/pixbake/pngopt/internal/pngimage"

// canonical reports whether img is in the non-interlaced representation
// reductions operate on. The search driver deinterlaces before running
// reductions and re-applies the interlacing choice afterward as its own
// candidate axis (spec §4.4/§4.7), so a reduction never needs to reason
// about Adam7 passes directly.
func canonical(img *pngimage.Image) bool {
	return img.Pixels.Rows != nil
}

func maxSample(depth uint8) uint16 {
	return uint16(1<<depth) - 1
}

// TryStrip16To8Strict implements the 16->8 bit depth reduction's strict
// trigger condition: every sample's low byte equals its high byte, so
// truncating to the high byte alone reproduces the same 16-bit value
// under PNG's standard 16-to-8 sample scaling (original_source/reduction/mod.rs
// reduce_bit_depth_16_to_8, strict branch).
func TryStrip16To8Strict(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.BitDepth != 16 {
		return img, false
	}
	ch := img.IHDR.ColorType.Channels()
	for _, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), 16, ch)
		for _, s := range samples {
			if byte(s>>8) != byte(s) {
				return img, false
			}
		}
	}
	return strip16To8(img), true
}

// TryStrip16To8 implements the opt-in Scale16 variant: it fires
// unconditionally whenever the bit depth is 16, taking the high byte of
// each sample regardless of whether the low byte matches (a deliberate,
// user-requested precision loss, never enabled by default).
func TryStrip16To8(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.BitDepth != 16 {
		return img, false
	}
	return strip16To8(img), true
}

func strip16To8(img *pngimage.Image) *pngimage.Image {
	out := img.Clone()
	out.IHDR.BitDepth = 8
	ch := img.IHDR.ColorType.Channels()
	for y, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), 16, ch)
		narrowed := make([]uint16, len(samples))
		for i, s := range samples {
			narrowed[i] = uint16(s >> 8)
		}
		out.Pixels.Rows[y] = pngimage.BuildRow(narrowed, int(img.IHDR.Width), 8, ch)
	}
	if out.Transparency != nil {
		out.Transparency.Gray >>= 8
		out.Transparency.R >>= 8
		out.Transparency.G >>= 8
		out.Transparency.B >>= 8
	}
	return out
}

// TryRGBToGray fires when every pixel's R, G and B samples are equal
// (original_source/reduction/mod.rs reduce_rgb_to_grayscale): the color
// channels carry no information beyond the gray channel already does.
func TryRGBToGray(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) {
		return img, false
	}
	if img.IHDR.ColorType != pngimage.ColorRGB && img.IHDR.ColorType != pngimage.ColorRGBA {
		return img, false
	}
	hasAlpha := img.IHDR.ColorType.HasAlpha()
	ch := img.IHDR.ColorType.Channels()
	depth := img.IHDR.BitDepth
	for _, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), depth, ch)
		for x := 0; x < int(img.IHDR.Width); x++ {
			r, g, b := samples[x*ch], samples[x*ch+1], samples[x*ch+2]
			if r != g || g != b {
				return img, false
			}
		}
	}
	if img.Transparency != nil && !hasAlpha {
		if img.Transparency.R != img.Transparency.G || img.Transparency.G != img.Transparency.B {
			return img, false
		}
	}

	out := img.Clone()
	outCh := 1
	if hasAlpha {
		outCh = 2
		out.IHDR.ColorType = pngimage.ColorGrayAlpha
	} else {
		out.IHDR.ColorType = pngimage.ColorGray
	}
	for y, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), depth, ch)
		gray := make([]uint16, int(img.IHDR.Width)*outCh)
		for x := 0; x < int(img.IHDR.Width); x++ {
			gray[x*outCh] = samples[x*ch]
			if hasAlpha {
				gray[x*outCh+1] = samples[x*ch+3]
			}
		}
		out.Pixels.Rows[y] = pngimage.BuildRow(gray, int(img.IHDR.Width), depth, outCh)
	}
	if out.Transparency != nil && !hasAlpha {
		out.Transparency = &pngimage.Transparency{Gray: img.Transparency.R}
	}
	return out, true
}

// TryAlphaStrip fires when no pixel's alpha sample is below full opacity
// for the current bit depth, so the alpha channel is provably redundant
// (original_source/reduction/mod.rs reduce_alpha_channel).
func TryAlphaStrip(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) {
		return img, false
	}
	if !img.IHDR.ColorType.HasAlpha() {
		return img, false
	}
	ch := img.IHDR.ColorType.Channels()
	depth := img.IHDR.BitDepth
	full := maxSample(depth)
	for _, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), depth, ch)
		for x := 0; x < int(img.IHDR.Width); x++ {
			if samples[x*ch+ch-1] != full {
				return img, false
			}
		}
	}

	out := img.Clone()
	outCh := ch - 1
	if img.IHDR.ColorType == pngimage.ColorRGBA {
		out.IHDR.ColorType = pngimage.ColorRGB
	} else {
		out.IHDR.ColorType = pngimage.ColorGray
	}
	for y, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, int(img.IHDR.Width), depth, ch)
		stripped := make([]uint16, int(img.IHDR.Width)*outCh)
		for x := 0; x < int(img.IHDR.Width); x++ {
			copy(stripped[x*outCh:x*outCh+outCh], samples[x*ch:x*ch+outCh])
		}
		out.Pixels.Rows[y] = pngimage.BuildRow(stripped, int(img.IHDR.Width), depth, outCh)
	}
	out.Transparency = nil
	return out, true
}

// TryIndexedToGray fires when every palette entry is gray (R==G==B)
// and fully opaque, so the image can drop its palette in favor of a
// direct gray sample stream (original_source/reduction/mod.rs
// reduce_palette_to_grayscale, restricted to the opaque case — the
// alpha-carrying case would require GrayAlpha and is not worth the extra
// byte over keeping the palette, so oxipng itself skips it too).
func TryIndexedToGray(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.ColorType != pngimage.ColorIndexed || img.Palette == nil {
		return img, false
	}
	for i, rgb := range img.Palette.Entries {
		if rgb.R != rgb.G || rgb.G != rgb.B {
			return img, false
		}
		if img.Palette.AlphaAt(i) != 255 {
			return img, false
		}
	}

	out := img.Clone()
	out.IHDR.ColorType = pngimage.ColorGray
	// Palette entries are 8-bit values, so the gray stream is written at
	// depth 8 whatever the index depth was; TryBitDepthDrop may narrow it.
	out.IHDR.BitDepth = 8
	depth := img.IHDR.BitDepth
	width := int(img.IHDR.Width)
	for y, row := range img.Pixels.Rows {
		indices := pngimage.UnpackRow(row, width, int(depth))
		gray := make([]uint16, width)
		for x, idx := range indices {
			if int(idx) < len(img.Palette.Entries) {
				gray[x] = uint16(img.Palette.Entries[idx].R)
			}
		}
		out.Pixels.Rows[y] = pngimage.BuildRow(gray, width, 8, 1)
	}
	out.Palette = nil
	out.Transparency = nil
	return out, true
}
