package pngimage

import (
	"bytes"

	"github.com/pixbake/pngopt/internal/bitio"
)

// RowSamples extracts every channel of every pixel in row as a flat
// []uint16 of length width*channels, most-significant channel first.
// Samples are simply consecutive bitDepth-bit fields in MSB-first order,
// so this reads straight through with a bitio.Reader rather than
// re-deriving pixel byte offsets per x.
func RowSamples(row []byte, width int, bitDepth uint8, channels int) []uint16 {
	r := bitio.NewReader(row)
	out := make([]uint16, width*channels)
	for i := range out {
		v, err := r.ReadBits(bitDepth)
		if err != nil {
			break
		}
		out[i] = v
	}
	return out
}

// BuildRow packs a flat []uint16 of width*channels samples (as produced
// by RowSamples) back into a PNG scanline at the given bit depth.
func BuildRow(samples []uint16, width int, bitDepth uint8, channels int) []byte {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for _, s := range samples {
		w.WriteBits(uint64(s), bitDepth)
	}
	w.Flush()
	return buf.Bytes()
}
