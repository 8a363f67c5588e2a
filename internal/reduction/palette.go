package reduction

import "github.com/pixbake/pngopt/internal/pngimage"

type rgba struct {
	r, g, b, a uint8
}

// TryRGBAToIndexed fires when an RGB/RGBA image (8-bit only — palettes
// cannot carry 16-bit samples) uses 256 or fewer distinct colors,
// building a palette in first-occurrence order and remapping every pixel
// to its palette index (original_source/reduction/mod.rs
// reduce_rgba_to_palette).
func TryRGBAToIndexed(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.BitDepth != 8 {
		return img, false
	}
	if img.IHDR.ColorType != pngimage.ColorRGB && img.IHDR.ColorType != pngimage.ColorRGBA {
		return img, false
	}
	ch := img.IHDR.ColorType.Channels()
	hasAlpha := img.IHDR.ColorType.HasAlpha()
	width := int(img.IHDR.Width)

	order := make([]rgba, 0, 256)
	index := make(map[rgba]int)
	overflow := false

	for _, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, width, 8, ch)
		for x := 0; x < width; x++ {
			var px rgba
			if hasAlpha {
				px = rgba{uint8(samples[x*ch]), uint8(samples[x*ch+1]), uint8(samples[x*ch+2]), uint8(samples[x*ch+3])}
			} else {
				px = rgba{uint8(samples[x*ch]), uint8(samples[x*ch+1]), uint8(samples[x*ch+2]), 255}
			}
			if _, ok := index[px]; !ok {
				if len(order) == 256 {
					overflow = true
					break
				}
				index[px] = len(order)
				order = append(order, px)
			}
		}
		if overflow {
			break
		}
	}
	if overflow {
		return img, false
	}

	out := img.Clone()
	out.IHDR.ColorType = pngimage.ColorIndexed
	pal := &pngimage.Palette{Entries: make([]pngimage.RGB, len(order))}
	anyTransparent := false
	for i, px := range order {
		pal.Entries[i] = pngimage.RGB{R: px.r, G: px.g, B: px.b}
		if px.a != 255 {
			anyTransparent = true
		}
	}
	if anyTransparent {
		pal.Alpha = make([]uint8, len(order))
		for i, px := range order {
			pal.Alpha[i] = px.a
		}
	}
	out.Palette = pal
	out.Transparency = nil

	depth := indexBitDepth(len(order))
	out.IHDR.BitDepth = depth
	for y, row := range img.Pixels.Rows {
		samples := pngimage.RowSamples(row, width, 8, ch)
		indices := make([]uint64, width)
		for x := 0; x < width; x++ {
			var px rgba
			if hasAlpha {
				px = rgba{uint8(samples[x*ch]), uint8(samples[x*ch+1]), uint8(samples[x*ch+2]), uint8(samples[x*ch+3])}
			} else {
				px = rgba{uint8(samples[x*ch]), uint8(samples[x*ch+1]), uint8(samples[x*ch+2]), 255}
			}
			indices[x] = uint64(index[px])
		}
		out.Pixels.Rows[y] = pngimage.PackRow(indices, int(depth))
	}
	return out, true
}

func indexBitDepth(n int) uint8 {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	case n <= 16:
		return 4
	default:
		return 8
	}
}

// TryPaletteDedup fires when the palette contains entries no pixel
// references, or two or more entries with identical RGB and alpha, and
// collapses both: unused entries are dropped, duplicate entries are
// merged to the first occurrence, and every pixel index is remapped
// (original_source/reduction/mod.rs reduce_palette, the "used and
// unique" pass). This narrows the palette but leaves the bit depth
// alone; TryBitDepthDrop repacks once the fixed point below settles.
func TryPaletteDedup(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.ColorType != pngimage.ColorIndexed || img.Palette == nil {
		return img, false
	}
	width := int(img.IHDR.Width)
	depth := int(img.IHDR.BitDepth)

	used := make([]bool, len(img.Palette.Entries))
	for _, row := range img.Pixels.Rows {
		for _, idx := range pngimage.UnpackRow(row, width, depth) {
			if int(idx) < len(used) {
				used[idx] = true
			}
		}
	}

	canon := make(map[rgba]int)
	remap := make([]int, len(img.Palette.Entries))
	var newOrder []rgba

	for i, rgb := range img.Palette.Entries {
		if !used[i] {
			remap[i] = -1
			continue
		}
		key := rgba{rgb.R, rgb.G, rgb.B, img.Palette.AlphaAt(i)}
		if j, ok := canon[key]; ok {
			remap[i] = j
			continue
		}
		j := len(newOrder)
		canon[key] = j
		newOrder = append(newOrder, key)
		remap[i] = j
	}

	if len(newOrder) == len(img.Palette.Entries) {
		changed := false
		for i := range remap {
			if remap[i] != i {
				changed = true
				break
			}
		}
		if !changed {
			return img, false
		}
	}

	out := img.Clone()
	pal := &pngimage.Palette{Entries: make([]pngimage.RGB, len(newOrder))}
	anyTransparent := false
	for i, px := range newOrder {
		pal.Entries[i] = pngimage.RGB{R: px.r, G: px.g, B: px.b}
		if px.a != 255 {
			anyTransparent = true
		}
	}
	if anyTransparent {
		pal.Alpha = make([]uint8, len(newOrder))
		for i, px := range newOrder {
			pal.Alpha[i] = px.a
		}
	}
	out.Palette = pal

	for y, row := range img.Pixels.Rows {
		indices := pngimage.UnpackRow(row, width, depth)
		remapped := make([]uint64, width)
		for x, idx := range indices {
			r := remap[idx]
			if r < 0 {
				r = 0
			}
			remapped[x] = uint64(r)
		}
		out.Pixels.Rows[y] = pngimage.PackRow(remapped, depth)
	}
	return out, true
}

// TryPaletteReorder clusters the palette by opacity then luminance —
// fully transparent entries first, then ascending brightness — which
// tends to make adjacent pixel indices differ by small integers and
// therefore filter/compress better (original_source/reduction/mod.rs
// reduce_palette's reordering pass; spec §4.3 marks this reduction as
// unconditional rather than trigger-gated).
func TryPaletteReorder(img *pngimage.Image) (*pngimage.Image, bool) {
	if !canonical(img) || img.IHDR.ColorType != pngimage.ColorIndexed || img.Palette == nil {
		return img, false
	}
	n := len(img.Palette.Entries)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	luminance := func(i int) int {
		rgb := img.Palette.Entries[i]
		return 299*int(rgb.R) + 587*int(rgb.G) + 114*int(rgb.B)
	}
	less := func(i, j int) bool {
		ai, aj := img.Palette.AlphaAt(order[i]), img.Palette.AlphaAt(order[j])
		if ai != aj {
			return ai < aj
		}
		return luminance(order[i]) < luminance(order[j])
	}
	// insertion sort: palettes are small (<=256) and this keeps the
	// comparator simple to reason about without importing sort for one
	// call site.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	identity := true
	for i, o := range order {
		if o != i {
			identity = false
			break
		}
	}
	if identity {
		return img, false
	}

	remap := make([]int, n)
	for newIdx, oldIdx := range order {
		remap[oldIdx] = newIdx
	}

	out := img.Clone()
	pal := &pngimage.Palette{Entries: make([]pngimage.RGB, n)}
	anyTransparent := false
	for newIdx, oldIdx := range order {
		pal.Entries[newIdx] = img.Palette.Entries[oldIdx]
		if img.Palette.AlphaAt(oldIdx) != 255 {
			anyTransparent = true
		}
	}
	if anyTransparent {
		pal.Alpha = make([]uint8, n)
		for newIdx, oldIdx := range order {
			pal.Alpha[newIdx] = img.Palette.AlphaAt(oldIdx)
		}
	}
	out.Palette = pal

	width := int(img.IHDR.Width)
	depth := int(img.IHDR.BitDepth)
	for y, row := range img.Pixels.Rows {
		indices := pngimage.UnpackRow(row, width, depth)
		remapped := make([]uint64, width)
		for x, idx := range indices {
			remapped[x] = uint64(remap[idx])
		}
		out.Pixels.Rows[y] = pngimage.PackRow(remapped, depth)
	}
	return out, true
}
