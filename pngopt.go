// Package pngopt is a lossless PNG/APNG optimizer: it decodes a PNG into
// its chunk and pixel model, searches a space of losslessly-equivalent
// re-encodings (reduced color depth/type, filter strategy, DEFLATE
// parameters), and re-emits the smallest one found, falling back to the
// original bytes when nothing smaller was found and the caller did not
// force a write.
package pngopt

import (
	"bytes"
	"context"
	"errors"
	"os"

	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/policy"
	"github.com/pixbake/pngopt/internal/rawdata"
	"github.com/pixbake/pngopt/internal/search"
)

// Optimize runs the engine over an in-memory PNG and returns the
// optimized bytes. When the search finds nothing smaller than input and
// opts.Force is unset, the returned bytes equal input byte-for-byte
// (spec §8 invariant "size monotone w.r.t. force") and err is nil.
func Optimize(input []byte, opts Options) ([]byte, error) {
	return optimizeWithContext(context.Background(), input, opts)
}

func optimizeWithContext(ctx context.Context, input []byte, opts Options) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	chunks, err := chunk.Parse(bytes.NewReader(input), opts.FixErrors)
	if err != nil {
		return nil, classifyParseError(err)
	}

	dec, err := decodeChunks(chunks)
	if err != nil {
		return nil, err
	}

	if err := validateHeader(dec.img.IHDR); err != nil {
		return nil, err
	}

	policy.Apply(dec.img, opts.Strip)

	var out []chunk.Chunk
	if dec.isAPNG {
		out, err = optimizeAPNG(ctx, dec.img, opts)
	} else {
		out, err = optimizeStill(ctx, dec.img, dec.idat, len(dec.idat), opts)
	}
	if err == search.ErrNoImprovement {
		return input, nil
	}
	if err != nil {
		return nil, err
	}

	encoded, err := chunk.Encode(out)
	if err != nil {
		return nil, newErr(IoError, "could not serialize output chunks", err)
	}

	// search.Run's own size comparison only sees compressed pixel bytes,
	// not chunk framing overhead; the boundary guarantee (spec §8 "size
	// monotone w.r.t. force") is about the whole file, so re-check here
	// regardless of what the per-image search decided.
	if !opts.Force && len(encoded) >= len(input) {
		return input, nil
	}
	return encoded, nil
}

// optimizeStill runs the search driver once over a non-animated image
// and re-chunks its winning candidate.
func optimizeStill(ctx context.Context, img *pngimage.Image, idat []byte, originalSize int, opts Options) ([]chunk.Chunk, error) {
	if err := rawdata.Decode(img, idat); err != nil {
		return nil, newErr(CorruptFile, "could not decode raw pixel data", err)
	}

	cfg := opts.resolvedSearchConfig(false)
	result, err := search.Run(ctx, img, originalSize, cfg)
	if err == search.ErrNoImprovement {
		return nil, err
	}
	if err != nil {
		return nil, classifySearchError(err)
	}

	return encodeChunks(result.Image, result.Bytes, nil)
}

// optimizeAPNG runs the search driver independently per frame (spec
// §4.9: header-affecting reductions are disabled per frame so every
// frame keeps the animation's shared bit depth/color type/palette), and
// re-chunks the winning per-frame candidates back into acTL/fcTL/fdAT.
func optimizeAPNG(ctx context.Context, img *pngimage.Image, opts Options) ([]chunk.Chunk, error) {
	anim := img.Animation
	frameIDAT := make([][]byte, len(anim.Frames))
	winningFrames := make([]pngimage.Frame, len(anim.Frames))

	cfg := opts.resolvedSearchConfig(true)
	for i, f := range anim.Frames {
		frameImg := &pngimage.Image{IHDR: img.IHDR, Palette: img.Palette, Transparency: img.Transparency}
		frameImg.IHDR.Width, frameImg.IHDR.Height = f.Width, f.Height
		frameImg.Pixels = f.Pixels

		result, err := search.Run(ctx, frameImg, estimateFrameSize(f), cfg)
		if err == search.ErrNoImprovement {
			// This frame alone has nothing smaller; encode its own pixels
			// with the None filter and the preset's first DEFLATE
			// parameter set so the animation as a whole can still improve
			// via other frames.
			baseline, encErr := rawdata.Encode(frameImg, filters.Strategy{Kind: filters.Basic, Fixed: filters.None}, cfg.Preset.Deflate[0])
			if encErr != nil {
				return nil, newErr(DeflateError, "could not encode fallback frame", encErr)
			}
			frameIDAT[i] = baseline.Bytes
			winningFrames[i] = f
			continue
		}
		if err != nil {
			return nil, classifySearchError(err)
		}

		frameIDAT[i] = result.Bytes
		wf := f
		wf.Pixels = result.Image.Pixels
		winningFrames[i] = wf
	}

	out := img.Clone()
	out.Animation = &pngimage.Animation{NumPlays: anim.NumPlays, Frames: winningFrames}
	return encodeChunks(out, nil, frameIDAT)
}

// estimateFrameSize returns the frame's uncompressed filtered size (one
// filter byte plus the row bytes, per row), used as the per-frame
// originalSize in place of the frame's original compressed size, which
// is not measured. A candidate that compresses below this raw size
// counts as an improvement for that frame; the whole-file comparison in
// optimizeWithContext is what keeps the output no larger than the input.
func estimateFrameSize(f pngimage.Frame) int {
	total := 0
	for _, row := range f.Pixels.Rows {
		total += len(row) + 1
	}
	return total
}

func validateHeader(h pngimage.IHDR) error {
	switch h.ColorType {
	case pngimage.ColorGray, pngimage.ColorRGB, pngimage.ColorIndexed, pngimage.ColorGrayAlpha, pngimage.ColorRGBA:
	default:
		return newErr(InvalidColorType, "unrecognized IHDR color type", nil)
	}
	if !h.ColorType.ValidBitDepth(h.BitDepth) {
		return newErr(InvalidDepth, "bit depth not valid for color type", nil)
	}
	return nil
}

func classifyParseError(err error) error {
	switch err {
	case chunk.ErrBadSignature:
		return newErr(NotPng, "bad PNG signature", err)
	case chunk.ErrTruncated, chunk.ErrOversized, chunk.ErrBadCRC:
		return newErr(CorruptFile, "malformed chunk stream", err)
	default:
		return newErr(CorruptFile, "malformed chunk stream", err)
	}
}

func classifySearchError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newErr(Timeout, "search driver did not finish before the deadline", err)
	}
	return newErr(DeflateError, "search driver could not produce a candidate", err)
}

// OptimizeFile reads path, optimizes it, and returns the resulting
// bytes without modifying the file on disk.
func OptimizeFile(path string, opts Options) ([]byte, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr(IoError, "could not read input file", err)
	}
	return Optimize(input, opts)
}

// OptimizeInPlace optimizes path and overwrites it, unless the result is
// byte-identical to the input, in which case the file is left untouched
// (spec §7: "on any fatal error the input file is not overwritten").
func OptimizeInPlace(path string, opts Options) error {
	input, err := os.ReadFile(path)
	if err != nil {
		return newErr(IoError, "could not read input file", err)
	}
	output, err := Optimize(input, opts)
	if err != nil {
		return err
	}
	if bytes.Equal(input, output) {
		return nil
	}
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, output, mode); err != nil {
		return newErr(IoError, "could not write output file", err)
	}
	return nil
}
