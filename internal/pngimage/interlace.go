package pngimage

// Deinterlace converts an Adam7-interlaced image's seven passes into
// plain non-interlaced scanlines (spec §4.4: a pure pixel remapping).
// Rows is populated, Passes is cleared, and the header's interlace
// method is set to InterlaceNone.
func Deinterlace(img *Image) {
	bpp := img.IHDR.BitsPerPixel()
	w, h := int(img.IHDR.Width), int(img.IHDR.Height)

	rows := make([][]byte, h)
	rowBytes := img.IHDR.RowBytes(uint32(w))
	for y := range rows {
		rows[y] = make([]byte, rowBytes)
	}

	for p := 0; p < 7; p++ {
		pass := img.Pixels.Passes[p]
		if pass == nil {
			continue
		}
		pw, ph := Adam7PassDims(p, uint32(w), uint32(h))
		for py := 0; py < int(ph); py++ {
			row := pass[py]
			for px := 0; px < int(pw); px++ {
				v := GetPixelBits(row, px, bpp)
				fx, fy := Adam7PixelCoord(p, px, py)
				SetPixelBits(rows[fy], fx, bpp, v)
			}
		}
	}

	img.Pixels.Rows = rows
	img.Pixels.Passes = [7][][]byte{}
	img.IHDR.Interlace = InterlaceNone
}

// Interlace converts plain non-interlaced scanlines into the seven Adam7
// reduced images (the inverse of Deinterlace).
func Interlace(img *Image) {
	bpp := img.IHDR.BitsPerPixel()
	w, h := int(img.IHDR.Width), int(img.IHDR.Height)

	var passes [7][][]byte
	for p := 0; p < 7; p++ {
		pw, ph := Adam7PassDims(p, uint32(w), uint32(h))
		if pw == 0 || ph == 0 {
			continue
		}
		rowBytes := img.IHDR.RowBytes(pw)
		pass := make([][]byte, ph)
		for py := range pass {
			pass[py] = make([]byte, rowBytes)
		}
		for py := 0; py < int(ph); py++ {
			for px := 0; px < int(pw); px++ {
				fx, fy := Adam7PixelCoord(p, px, py)
				v := GetPixelBits(img.Pixels.Rows[fy], fx, bpp)
				SetPixelBits(pass[py], px, bpp, v)
			}
		}
		passes[p] = pass
	}

	img.Pixels.Passes = passes
	img.Pixels.Rows = nil
	img.IHDR.Interlace = InterlaceAdam7
}
