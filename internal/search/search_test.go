package search

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/rawdata"
	"github.com/pixbake/pngopt/internal/trial"
)

func solidImage(w, h uint32) *pngimage.Image {
	img := &pngimage.Image{
		IHDR: pngimage.IHDR{Width: w, Height: h, BitDepth: 8, ColorType: pngimage.ColorRGBA},
	}
	rowBytes := img.IHDR.RowBytes(w)
	img.Pixels.Rows = make([][]byte, h)
	for y := range img.Pixels.Rows {
		row := make([]byte, rowBytes)
		for x := 0; x < int(w); x++ {
			row[x*4] = 10
			row[x*4+1] = 10
			row[x*4+2] = 10
			row[x*4+3] = 255
		}
		img.Pixels.Rows[y] = row
	}
	return img
}

func TestRunFindsSmallerCandidateForReducibleImage(t *testing.T) {
	img := solidImage(16, 16)
	original := img.Clone()
	originalResult, err := rawdata.Encode(original, filters.Strategy{Kind: filters.Basic, Fixed: filters.None}, trial.Params{Method: trial.MethodLibdeflate, Level: 1})
	if err != nil {
		t.Fatalf("encode original: %v", err)
	}

	cfg := Config{
		Preset:  PresetForLevel(4),
		Force:   true,
		Workers: 2,
	}

	result, err := Run(context.Background(), img, len(originalResult.Bytes), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Image.IHDR.ColorType != pngimage.ColorGray {
		t.Fatalf("expected the solid opaque gray-equal image to reduce to Gray, got %v", result.Image.IHDR.ColorType)
	}
	if result.Size <= 0 {
		t.Fatalf("result size = %d", result.Size)
	}
}

func TestRunReturnsNoImprovementWhenForceOff(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := &pngimage.Image{
		IHDR: pngimage.IHDR{Width: 8, Height: 8, BitDepth: 8, ColorType: pngimage.ColorRGBA},
	}
	rowBytes := img.IHDR.RowBytes(8)
	img.Pixels.Rows = make([][]byte, 8)
	for y := range img.Pixels.Rows {
		row := make([]byte, rowBytes)
		rng.Read(row)
		img.Pixels.Rows[y] = row
	}

	cfg := Config{
		Preset: PresetForLevel(0),
		Force:  false,
	}

	_, err := Run(context.Background(), img, 0, cfg)
	if err != ErrNoImprovement {
		t.Fatalf("err = %v, want ErrNoImprovement", err)
	}
}

func TestBuildVariantsHonorsInterlaceForceOn(t *testing.T) {
	img := solidImage(8, 8)
	preset := PresetForLevel(2)
	variants := buildVariants(img, preset, InterlaceForceOn)
	for _, v := range variants {
		if !v.IsInterlaced() {
			t.Fatalf("expected every variant to be interlaced under ForceOn")
		}
	}
}
