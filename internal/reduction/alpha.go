package reduction

import "github.com/pixbake/pngopt/internal/pngimage"

// TryAlphaOptimize is the opt-in cleanup pass for fully transparent
// pixels: a pixel with alpha == 0 is invisible regardless of its color
// samples, so those samples carry no rendering meaning and can be
// rewritten freely. Rewriting them to match the nearest preceding
// non-transparent pixel on the same row removes entropy that would
// otherwise feed into every candidate filter/compression trial, without
// changing how the image renders (original_source/filters.rs's
// optimize_alpha, adapted here as a standalone row-level pass rather
// than a per-filter-candidate one — oxipng applies the rewrite once per
// candidate filter immediately before filtering; this engine applies it
// once, upstream of the whole trial matrix, since the result is filter
// independent and memoizing it there is strictly cheaper).
func TryAlphaOptimize(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || !img.IHDR.ColorType.HasAlpha() {
		return img, false
	}
	ch := img.IHDR.ColorType.Channels()
	depth := img.IHDR.BitDepth
	width := int(img.IHDR.Width)
	colorChannels := ch - 1

	out := img.Clone()
	changed := false

	for y, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, width, depth, ch)
		last := make([]uint16, colorChannels)
		rowChanged := false
		for x := 0; x < width; x++ {
			base := x * ch
			if samples[base+colorChannels] == 0 {
				for c := 0; c < colorChannels; c++ {
					if samples[base+c] != last[c] {
						samples[base+c] = last[c]
						rowChanged = true
					}
				}
			} else {
				copy(last, samples[base:base+colorChannels])
			}
		}
		if rowChanged {
			out.Pixels.Rows[y] = pngimage.BuildRow(samples, width, depth, ch)
			changed = true
		}
	}

	if !changed {
		return img, false
	}
	return out, true
}
