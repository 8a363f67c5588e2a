package pngopt

import (
	"encoding/binary"

	"github.com/pixbake/pngopt/internal/apng"
	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/policy"
)

// maxIDATChunkLen bounds re-chunked IDAT/fdAT payloads; oxipng and most
// encoders use a generous but practical cap well under chunk.MaxLength.
const maxIDATChunkLen = 1 << 20

// encodeChunks serializes the optimized image back into the PNG chunk
// sequence (spec §4.8), walking policy.EmissionOrder's category
// checklist and emitting the concrete bytes for each category in turn.
func encodeChunks(img *pngimage.Image, idat []byte, frameIDAT [][]byte) ([]chunk.Chunk, error) {
	ancillaryData := make(map[string][]byte, len(img.Ancillary))
	for _, c := range img.Ancillary {
		ancillaryData[c.Type] = c.Data
	}

	var out []chunk.Chunk
	for _, category := range policy.EmissionOrder(img) {
		switch category {
		case "IHDR":
			out = append(out, chunk.Chunk{Type: "IHDR", Data: encodeIHDR(img.IHDR)})
		case "PLTE":
			out = append(out, chunk.Chunk{Type: "PLTE", Data: encodePLTE(img.Palette)})
		case "tRNS":
			out = append(out, chunk.Chunk{Type: "tRNS", Data: encodeTRNS(img)})
		case "acTL":
			// acTL's concrete bytes are emitted together with fcTL/fdAT
			// below; this category only records that it belongs before
			// IDAT in the checklist.
		case "IDAT":
			if img.IsAPNG() {
				apngChunks, err := apng.Encode(img.Animation, frameIDAT, maxIDATChunkLen)
				if err != nil {
					return nil, newErr(ChannelDependencyError, "could not encode APNG control chunks", err)
				}
				out = append(out, apngChunks...)
			} else {
				for _, part := range chunk.Split(idat, maxIDATChunkLen) {
					out = append(out, chunk.Chunk{Type: "IDAT", Data: part})
				}
			}
		case "fcTL+fdAT":
			// apng.Encode already emitted the whole acTL/fcTL/fdAT run
			// as one unit when the "IDAT" category was handled above.
		case "IEND":
			out = append(out, chunk.Chunk{Type: "IEND"})
		default:
			if data, ok := ancillaryData[category]; ok {
				out = append(out, chunk.Chunk{Type: category, Data: data})
			}
		}
	}
	return out, nil
}

func encodeIHDR(h pngimage.IHDR) []byte {
	buf := make([]byte, 13)
	binary.BigEndian.PutUint32(buf[0:4], h.Width)
	binary.BigEndian.PutUint32(buf[4:8], h.Height)
	buf[8] = h.BitDepth
	buf[9] = byte(h.ColorType)
	buf[10] = h.CompressionMethod
	buf[11] = h.FilterMethod
	buf[12] = byte(h.Interlace)
	return buf
}

func encodePLTE(p *pngimage.Palette) []byte {
	buf := make([]byte, len(p.Entries)*3)
	for i, e := range p.Entries {
		buf[i*3] = e.R
		buf[i*3+1] = e.G
		buf[i*3+2] = e.B
	}
	return buf
}

func encodeTRNS(img *pngimage.Image) []byte {
	if img.IHDR.ColorType == pngimage.ColorIndexed {
		if img.Palette == nil || len(img.Palette.Alpha) == 0 {
			return nil
		}
		return append([]byte(nil), img.Palette.Alpha...)
	}
	if img.Transparency == nil {
		return nil
	}
	switch img.IHDR.ColorType {
	case pngimage.ColorGray:
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, img.Transparency.Gray)
		return buf
	case pngimage.ColorRGB:
		buf := make([]byte, 6)
		binary.BigEndian.PutUint16(buf[0:2], img.Transparency.R)
		binary.BigEndian.PutUint16(buf[2:4], img.Transparency.G)
		binary.BigEndian.PutUint16(buf[4:6], img.Transparency.B)
		return buf
	}
	return nil
}
