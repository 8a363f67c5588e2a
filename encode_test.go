package pngopt

import (
	"testing"

	"github.com/pixbake/pngopt/internal/pngimage"
)

func TestEncodeChunksOrdersPLTETRNSAncillary(t *testing.T) {
	img := &pngimage.Image{
		IHDR:         pngimage.IHDR{Width: 1, Height: 1, BitDepth: 8, ColorType: pngimage.ColorIndexed},
		Palette:      &pngimage.Palette{Entries: []pngimage.RGB{{R: 1, G: 2, B: 3}}, Alpha: []uint8{255}},
		Transparency: nil,
		Ancillary:    []pngimage.AncillaryChunk{{Type: "pHYs", Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}}},
	}
	img.Pixels.Rows = [][]byte{{0}}

	chunks, err := encodeChunks(img, []byte{0x00}, nil)
	if err != nil {
		t.Fatalf("encodeChunks: %v", err)
	}

	var types []string
	for _, c := range chunks {
		types = append(types, c.Type)
	}
	want := []string{"IHDR", "PLTE", "tRNS", "pHYs", "IDAT", "IEND"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
}

func TestEncodeChunksOmitsTRNSWhenAbsent(t *testing.T) {
	img := &pngimage.Image{
		IHDR: pngimage.IHDR{Width: 1, Height: 1, BitDepth: 8, ColorType: pngimage.ColorGray},
	}
	img.Pixels.Rows = [][]byte{{0}}

	chunks, err := encodeChunks(img, []byte{0x00}, nil)
	if err != nil {
		t.Fatalf("encodeChunks: %v", err)
	}
	for _, c := range chunks {
		if c.Type == "tRNS" {
			t.Fatalf("unexpected tRNS chunk when image has no transparency data")
		}
	}
}
