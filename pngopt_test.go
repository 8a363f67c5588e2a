package pngopt

import (
	"bytes"
	"testing"
	"time"

	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/rawdata"
	"github.com/pixbake/pngopt/internal/trial"
)

// buildPNG assembles a minimal but complete PNG byte stream for an RGBA8
// solid-color image, used as test input for the public API.
func buildPNG(t *testing.T, w, h uint32, r, g, b, a uint8) []byte {
	return buildPNGAtLevel(t, w, h, r, g, b, a, 1)
}

func buildPNGAtLevel(t *testing.T, w, h uint32, r, g, b, a uint8, level int) []byte {
	t.Helper()
	img := &pngimage.Image{IHDR: pngimage.IHDR{Width: w, Height: h, BitDepth: 8, ColorType: pngimage.ColorRGBA}}
	img.Pixels.Rows = make([][]byte, h)
	for y := range img.Pixels.Rows {
		row := make([]byte, w*4)
		for x := uint32(0); x < w; x++ {
			row[x*4] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = a
		}
		img.Pixels.Rows[y] = row
	}

	result, err := rawdata.Encode(img, filters.Strategy{Kind: filters.Basic, Fixed: filters.None}, trial.Params{Method: trial.MethodLibdeflate, Level: level})
	if err != nil {
		t.Fatalf("rawdata.Encode: %v", err)
	}

	chunks, err := encodeChunks(img, result.Bytes, nil)
	if err != nil {
		t.Fatalf("encodeChunks: %v", err)
	}
	out, err := chunk.Encode(chunks)
	if err != nil {
		t.Fatalf("chunk.Encode: %v", err)
	}
	return out
}

func TestOptimizeReducesSolidRGBAToSmallerGray(t *testing.T) {
	input := buildPNG(t, 32, 32, 7, 7, 7, 255)

	// DefaultOptions leaves the four reduction knobs unset (nil), so this
	// exercises PresetLevel 2's own table turning them on — no manual
	// overrides required.
	opts := DefaultOptions()
	opts.Force = true

	output, err := Optimize(input, opts)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(output) >= len(input) {
		t.Fatalf("optimized size %d not smaller than input %d", len(output), len(input))
	}

	chunks, err := chunk.Parse(bytes.NewReader(output), false)
	if err != nil {
		t.Fatalf("re-parsing optimized output: %v", err)
	}
	dec, err := decodeChunks(chunks)
	if err != nil {
		t.Fatalf("re-decoding optimized output: %v", err)
	}
	if dec.img.IHDR.ColorType != pngimage.ColorGray {
		t.Fatalf("expected reduction to Gray, got %v", dec.img.IHDR.ColorType)
	}
}

func TestOptimizeColorTypeReductionOverrideWinsOverPreset(t *testing.T) {
	input := buildPNG(t, 32, 32, 7, 7, 7, 255)

	opts := DefaultOptions()
	opts.ColorTypeReduction = Bool(false)
	opts.Force = true

	output, err := Optimize(input, opts)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	chunks, err := chunk.Parse(bytes.NewReader(output), false)
	if err != nil {
		t.Fatalf("re-parsing optimized output: %v", err)
	}
	dec, err := decodeChunks(chunks)
	if err != nil {
		t.Fatalf("re-decoding optimized output: %v", err)
	}
	if dec.img.IHDR.ColorType != pngimage.ColorRGBA {
		t.Fatalf("expected explicit ColorTypeReduction=false to suppress the preset's reduction, got %v", dec.img.IHDR.ColorType)
	}
}

func TestOptimizeWithoutForceFallsBackToInputBytes(t *testing.T) {
	// Encoded at the best DEFLATE level with the same filter Preset0
	// tries; Preset0's own (lower) level can never beat this, so the
	// search driver is guaranteed to report no improvement.
	input := buildPNGAtLevel(t, 4, 4, 1, 2, 3, 255, 9)

	opts := Options{PresetLevel: Preset0, Force: false}
	output, err := Optimize(input, opts)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !bytes.Equal(input, output) {
		t.Fatalf("expected fallback to input bytes unchanged when no improvement and force is off")
	}
}

func TestOptimizeClassifiesExpiredTimeoutAsTimeout(t *testing.T) {
	input := buildPNG(t, 32, 32, 7, 7, 7, 255)

	opts := DefaultOptions()
	opts.Force = true
	opts.Timeout = 1 * time.Nanosecond

	_, err := Optimize(input, opts)
	if err == nil {
		t.Fatalf("expected an error for an already-expired timeout")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pe.Kind != Timeout {
		t.Fatalf("expected Timeout, got %v", pe.Kind)
	}
}

func TestOptimizeRejectsNonPNGInput(t *testing.T) {
	_, err := Optimize([]byte("not a png"), DefaultOptions())
	if err == nil {
		t.Fatalf("expected an error for non-PNG input")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pe.Kind != NotPng {
		t.Fatalf("expected NotPng, got %v", pe.Kind)
	}
}
