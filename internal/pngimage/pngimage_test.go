package pngimage

import (
	"math/rand"
	"testing"
)

func TestPixelBitsRoundTrip(t *testing.T) {
	for _, bpp := range []int{1, 2, 4, 8, 16, 24, 32} {
		count := 37
		rowBytes := (count*bpp + 7) / 8
		row := make([]byte, rowBytes)

		rng := rand.New(rand.NewSource(int64(bpp)))
		vals := make([]uint64, count)
		for i := range vals {
			v := uint64(rng.Int63()) & (1<<uint(bpp) - 1)
			vals[i] = v
			SetPixelBits(row, i, bpp, v)
		}
		for i, want := range vals {
			if got := GetPixelBits(row, i, bpp); got != want {
				t.Fatalf("bpp=%d pixel %d: got %d want %d", bpp, i, got, want)
			}
		}
	}
}

func TestAdam7PassDims(t *testing.T) {
	// A well-known reference: 8x8 image -> every pass has exactly 1 row/col
	// at the coarsest granularity, summing back to 64 pixels total.
	width, height := uint32(8), uint32(8)
	total := 0
	for p := 0; p < 7; p++ {
		w, h := Adam7PassDims(p, width, height)
		total += int(w) * int(h)
	}
	if total != 64 {
		t.Fatalf("sum of pass pixel counts = %d, want 64", total)
	}
}

func TestInterlaceDeinterlaceRoundTrip(t *testing.T) {
	img := &Image{
		IHDR: IHDR{
			Width: 13, Height: 9, BitDepth: 8, ColorType: ColorRGB,
		},
	}
	rowBytes := img.IHDR.RowBytes(img.IHDR.Width)
	img.Pixels.Rows = make([][]byte, img.IHDR.Height)
	rng := rand.New(rand.NewSource(42))
	for y := range img.Pixels.Rows {
		row := make([]byte, rowBytes)
		rng.Read(row)
		img.Pixels.Rows[y] = row
	}

	original := img.Clone()

	Interlace(img)
	if img.Pixels.Rows != nil {
		t.Fatalf("Interlace should clear Rows")
	}
	Deinterlace(img)

	if len(img.Pixels.Rows) != len(original.Pixels.Rows) {
		t.Fatalf("row count mismatch after round trip")
	}
	for y := range original.Pixels.Rows {
		got := img.Pixels.Rows[y]
		want := original.Pixels.Rows[y]
		if len(got) != len(want) {
			t.Fatalf("row %d length mismatch", y)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("row %d byte %d mismatch: got %d want %d", y, i, got[i], want[i])
			}
		}
	}
}

func TestAdam7PassAbsentWhenEmpty(t *testing.T) {
	// A 1x1 image only has data in pass 0; all others are empty.
	w, h := uint32(1), uint32(1)
	for p := 0; p < 7; p++ {
		pw, ph := Adam7PassDims(p, w, h)
		if p == 0 {
			if pw != 1 || ph != 1 {
				t.Fatalf("pass 0 dims = %dx%d, want 1x1", pw, ph)
			}
		} else if pw != 0 || ph != 0 {
			t.Fatalf("pass %d dims = %dx%d, want empty", p, pw, ph)
		}
	}
}
