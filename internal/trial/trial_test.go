package trial

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := make([]byte, 4096)
	rng.Read(data)
	// Give it some repetition so DEFLATE actually shrinks it.
	copy(data[2048:], data[:2048])

	for level := 1; level <= 9; level++ {
		r, err := Compress(data, Params{Method: MethodLibdeflate, Level: level}, 0)
		if err != nil {
			t.Fatalf("level %d: Compress: %v", level, err)
		}
		got, err := Decompress(r.Bytes)
		if err != nil {
			t.Fatalf("level %d: Decompress: %v", level, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("level %d: round trip mismatch", level)
		}
		if r.Size != len(r.Bytes) {
			t.Fatalf("level %d: Size field mismatch", level)
		}
	}
}

func TestCompressSizeBoundAborts(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	data := make([]byte, 1<<16)
	rng.Read(data)

	full, err := Compress(data, Params{Method: MethodLibdeflate, Level: 9}, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	_, err = Compress(data, Params{Method: MethodLibdeflate, Level: 9}, full.Size/2)
	if err != ErrExceedsBound {
		t.Fatalf("expected ErrExceedsBound, got %v", err)
	}
}

func TestZopfliStyleProducesValidStream(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 50)
	r, err := Compress(data, Params{Method: MethodZopfli, Iterations: 15}, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(r.Bytes)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("zopfli-style round trip mismatch")
	}
}

func TestClampedLevel(t *testing.T) {
	if clampedLevel(0) != 1 {
		t.Fatalf("clampedLevel(0) = %d, want 1", clampedLevel(0))
	}
	if clampedLevel(12) != 9 {
		t.Fatalf("clampedLevel(12) = %d, want 9", clampedLevel(12))
	}
	if clampedLevel(5) != 5 {
		t.Fatalf("clampedLevel(5) = %d, want 5", clampedLevel(5))
	}
}
