// Package rawdata implements the raw-data codec (spec §4.2): joining the
// IDAT/fdAT payload stream, inflating it, and de-filtering it into the
// pixel matrix; and the inverse (filter + deflate) used by the search
// driver's trial loop.
package rawdata

import (
	"fmt"

	"github.com/pixbake/pngopt/internal/filters"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/trial"
)

// DecodeError reports a malformed raw-data stream (spec §4.2 error set).
type DecodeError struct{ Reason string }

func (e *DecodeError) Error() string { return "rawdata: " + e.Reason }

var (
	ErrBadFilterType = &DecodeError{"filter type byte out of range"}
	ErrShortScanline = &DecodeError{"scanline shorter than expected"}
)

// Decode inflates the concatenated IDAT payloads and de-filters the
// result into img.Pixels, honoring interlacing. img.IHDR must already be
// populated.
func Decode(img *pngimage.Image, idat []byte) error {
	raw, err := trial.Decompress(idat)
	if err != nil {
		return fmt.Errorf("rawdata: %w", err)
	}

	bpp := img.IHDR.BytesPerPixel()
	if img.IsInterlaced() {
		offset := 0
		for p := 0; p < 7; p++ {
			w, h := pngimage.Adam7PassDims(p, img.IHDR.Width, img.IHDR.Height)
			if w == 0 || h == 0 {
				continue
			}
			rowBytes := img.IHDR.RowBytes(w)
			rows, n, err := unfilterPass(raw[offset:], int(h), rowBytes, bpp)
			if err != nil {
				return err
			}
			offset += n
			img.Pixels.Passes[p] = rows
		}
		return nil
	}

	rowBytes := img.IHDR.RowBytes(img.IHDR.Width)
	rows, _, err := unfilterPass(raw, int(img.IHDR.Height), rowBytes, bpp)
	if err != nil {
		return err
	}
	img.Pixels.Rows = rows
	return nil
}

// unfilterPass de-filters height rows of rowBytes unfiltered bytes each
// from a byte stream where every row is prefixed by its one-byte filter
// tag, returning the unfiltered rows and the number of input bytes
// consumed.
func unfilterPass(data []byte, height, rowBytes, bpp int) ([][]byte, int, error) {
	rows := make([][]byte, height)
	prev := make([]byte, rowBytes)
	offset := 0
	for y := 0; y < height; y++ {
		if offset >= len(data) {
			return nil, 0, ErrShortScanline
		}
		ft := data[offset]
		offset++
		if ft > 4 {
			return nil, 0, ErrBadFilterType
		}
		if offset+rowBytes > len(data) {
			return nil, 0, ErrShortScanline
		}
		filteredRow := data[offset : offset+rowBytes]
		offset += rowBytes

		row := filters.Unfilter(filters.RowFilter(ft), filteredRow, prev, bpp, nil)
		rows[y] = row
		prev = row
	}
	return rows, offset, nil
}

// Encode filters img.Pixels under strategy and compresses the result
// under params, returning the compressed bytes ready to be re-chunked
// into IDAT/fdAT (spec §4.2's inverse direction).
func Encode(img *pngimage.Image, strategy filters.Strategy, params trial.Params) (*trial.Result, error) {
	filtered, err := Filter(img, strategy)
	if err != nil {
		return nil, err
	}
	return trial.Compress(filtered, params, 0)
}

// Filter applies strategy to every row/pass of img.Pixels and returns the
// concatenated filtered bytes (each row prefixed by its filter-type
// byte), without compressing them. This is the memoizable unit the
// search driver shares across every DEFLATE parameter set tried against
// the same (image variant, strategy) pair (spec §4.7 step 5).
func Filter(img *pngimage.Image, strategy filters.Strategy) ([]byte, error) {
	bpp := img.IHDR.BytesPerPixel()
	if img.IsInterlaced() {
		var out []byte
		for p := 0; p < 7; p++ {
			pass := img.Pixels.Passes[p]
			if pass == nil {
				continue
			}
			filteredPass, _ := filters.ApplyImage(strategy, pass, bpp)
			out = append(out, filteredPass...)
		}
		return out, nil
	}
	if img.Pixels.Rows == nil {
		return nil, fmt.Errorf("rawdata: image has no pixel rows")
	}
	out, _ := filters.ApplyImage(strategy, img.Pixels.Rows, bpp)
	return out, nil
}
