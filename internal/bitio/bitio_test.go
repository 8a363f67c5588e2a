package bitio

import (
	"bytes"
	"testing"
)

func TestWriteReadBitsRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		depth uint8
		vals  []uint64
	}{
		{"depth1", 1, []uint64{0, 1, 1, 0, 0, 0, 1, 1, 1}},
		{"depth2", 2, []uint64{3, 0, 2, 1, 3}},
		{"depth4", 4, []uint64{15, 0, 7, 8, 1}},
		{"depth8", 8, []uint64{255, 0, 128, 17}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			for _, v := range tc.vals {
				w.WriteBits(v, tc.depth)
			}
			w.Flush()

			r := NewReader(buf.Bytes())
			for i, want := range tc.vals {
				got, err := r.ReadBits(tc.depth)
				if err != nil {
					t.Fatalf("ReadBits[%d]: %v", i, err)
				}
				if uint64(got) != want {
					t.Fatalf("ReadBits[%d] = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestPackUnpackSamples(t *testing.T) {
	for _, depth := range []uint8{1, 2, 4} {
		count := 13
		src := make([]byte, count)
		mask := byte(1<<depth - 1)
		for i := range src {
			src[i] = byte(i) & mask
		}

		packed := PackSamples(src, depth)
		wantLen := (count*int(depth) + 7) / 8
		if len(packed) != wantLen {
			t.Fatalf("depth %d: packed len = %d, want %d", depth, len(packed), wantLen)
		}

		got, err := UnpackSamples(packed, depth, count)
		if err != nil {
			t.Fatalf("depth %d: UnpackSamples: %v", depth, err)
		}
		if !bytes.Equal(got, src) {
			t.Fatalf("depth %d: round-trip mismatch: got %v want %v", depth, got, src)
		}
	}
}

func TestReadBitsTruncated(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.ReadBits(8); err == nil {
		t.Fatalf("expected error reading past end of data")
	}
}
