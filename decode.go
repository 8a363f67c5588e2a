package pngopt

import (
	"encoding/binary"

	"github.com/pixbake/pngopt/internal/apng"
	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/pngimage"
)

// decoded is the result of walking a parsed chunk list into the in-memory
// image model plus the raw bytes the search driver will re-encode.
type decoded struct {
	img      *pngimage.Image
	idat     []byte // concatenated IDAT payloads (default/still image)
	isAPNG   bool
}

// decodeChunks builds a pngimage.Image from a parsed chunk sequence
// (spec §4.1/§4.2/§4.9): IHDR is mandatory and first; PLTE and tRNS are
// decoded into their typed fields; every other chunk (other than
// IDAT/fdAT/acTL/fcTL/IEND) is kept verbatim in Ancillary, preserving
// relative order; acTL/fcTL/fdAT are handed to the apng package.
func decodeChunks(chunks []chunk.Chunk) (*decoded, error) {
	if len(chunks) == 0 || chunks[0].Type != "IHDR" {
		return nil, newErr(NotPng, "missing IHDR", nil)
	}

	ihdr, err := parseIHDR(chunks[0].Data)
	if err != nil {
		return nil, newErr(CorruptFile, "malformed IHDR", err)
	}
	img := &pngimage.Image{IHDR: ihdr}

	var idat []byte
	for _, c := range chunks[1:] {
		switch c.Type {
		case "IHDR":
			return nil, newErr(CorruptFile, "duplicate IHDR", nil)
		case "PLTE":
			img.Palette = parsePLTE(c.Data)
		case "tRNS":
			img.Transparency = parseTRNS(c.Data, img.IHDR, img.Palette)
		case "IDAT":
			idat = append(idat, c.Data...)
		case "acTL", "fcTL", "fdAT":
			// handled below via apng.Decode over the full chunk list
		case "IEND":
		default:
			img.Ancillary = append(img.Ancillary, pngimage.AncillaryChunk{Type: c.Type, Data: c.Data})
		}
	}

	if err := apng.Decode(img, chunks); err != nil {
		return nil, newErr(CorruptFile, "malformed APNG control chunk", err)
	}

	return &decoded{img: img, idat: idat, isAPNG: img.IsAPNG()}, nil
}

func parseIHDR(data []byte) (pngimage.IHDR, error) {
	if len(data) != 13 {
		return pngimage.IHDR{}, &chunk.ParseError{Reason: "IHDR: wrong length"}
	}
	return pngimage.IHDR{
		Width:             binary.BigEndian.Uint32(data[0:4]),
		Height:            binary.BigEndian.Uint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         pngimage.ColorType(data[9]),
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		Interlace:         pngimage.InterlaceMethod(data[12]),
	}, nil
}

func parsePLTE(data []byte) *pngimage.Palette {
	n := len(data) / 3
	entries := make([]pngimage.RGB, n)
	for i := 0; i < n; i++ {
		entries[i] = pngimage.RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return &pngimage.Palette{Entries: entries}
}

func parseTRNS(data []byte, ihdr pngimage.IHDR, pal *pngimage.Palette) *pngimage.Transparency {
	switch ihdr.ColorType {
	case pngimage.ColorGray:
		if len(data) < 2 {
			return nil
		}
		return &pngimage.Transparency{Gray: binary.BigEndian.Uint16(data[0:2])}
	case pngimage.ColorRGB:
		if len(data) < 6 {
			return nil
		}
		return &pngimage.Transparency{
			R: binary.BigEndian.Uint16(data[0:2]),
			G: binary.BigEndian.Uint16(data[2:4]),
			B: binary.BigEndian.Uint16(data[4:6]),
		}
	case pngimage.ColorIndexed:
		if pal != nil {
			pal.Alpha = append([]uint8(nil), data...)
		}
		return nil
	}
	return nil
}
