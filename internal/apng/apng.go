// Package apng implements APNG container handling (spec §4.9): decoding
// acTL/fcTL/fdAT into per-frame pixel data, and the inverse encoding of
// an optimized Animation back into that same chunk sequence. Wire
// layout (field order, big-endian widths) is grounded on
// shutej-apng/writer.go's Chunk_acTL/Chunk_fcTL/Chunk_fdAT.
package apng

import (
	"encoding/binary"
	"fmt"

	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/pngimage"
	"github.com/pixbake/pngopt/internal/rawdata"
)

// ParseError reports a malformed APNG control chunk.
type ParseError struct{ Reason string }

func (e *ParseError) Error() string { return "apng: " + e.Reason }

const (
	actlSize = 8
	fctlSize = 26
)

// frameControl is the decoded fcTL payload for one frame.
type frameControl struct {
	sequenceNumber uint32
	width, height  uint32
	xOffset, yOffset uint32
	delayNum, delayDen uint16
	disposeOp, blendOp uint8
}

func parseACTL(data []byte) (numFrames, numPlays uint32, err error) {
	if len(data) != actlSize {
		return 0, 0, &ParseError{"acTL: wrong length"}
	}
	return binary.BigEndian.Uint32(data[0:4]), binary.BigEndian.Uint32(data[4:8]), nil
}

func parseFCTL(data []byte) (frameControl, error) {
	if len(data) != fctlSize {
		return frameControl{}, &ParseError{"fcTL: wrong length"}
	}
	return frameControl{
		sequenceNumber: binary.BigEndian.Uint32(data[0:4]),
		width:          binary.BigEndian.Uint32(data[4:8]),
		height:         binary.BigEndian.Uint32(data[8:12]),
		xOffset:        binary.BigEndian.Uint32(data[12:16]),
		yOffset:        binary.BigEndian.Uint32(data[16:20]),
		delayNum:       binary.BigEndian.Uint16(data[20:22]),
		delayDen:       binary.BigEndian.Uint16(data[22:24]),
		disposeOp:      data[24],
		blendOp:        data[25],
	}, nil
}

// Decode scans the raw chunk list for acTL/fcTL/fdAT and IDAT, building
// img.Animation. chunks is the full parsed chunk list for the file
// (spec §4.1); img.IHDR must already be populated. Each frame's pixel
// data is independently decoded, honoring dispose/blend only to the
// extent of isolating that frame's own pixels — composition against
// prior frames is left to a renderer, not this engine (spec §4.9).
func Decode(img *pngimage.Image, chunks []chunk.Chunk) error {
	var numFrames, numPlays uint32
	haveACTL := false
	var fctls []frameControl
	frameData := map[uint32][]byte{} // sequence number of the fcTL -> concatenated data
	var idatDefault []byte
	var curSeq uint32
	var curData []byte
	haveCur := false

	flush := func() {
		if haveCur {
			frameData[curSeq] = curData
		}
	}

	for _, c := range chunks {
		switch c.Type {
		case "acTL":
			n, p, err := parseACTL(c.Data)
			if err != nil {
				return err
			}
			numFrames, numPlays, haveACTL = n, p, true
		case "fcTL":
			flush()
			fc, err := parseFCTL(c.Data)
			if err != nil {
				return err
			}
			fctls = append(fctls, fc)
			curSeq = fc.sequenceNumber
			curData = nil
			haveCur = true
		case "IDAT":
			idatDefault = append(idatDefault, c.Data...)
			if haveCur {
				curData = append(curData, c.Data...)
			}
		case "fdAT":
			if len(c.Data) < 4 {
				return &ParseError{"fdAT: too short for sequence number"}
			}
			curData = append(curData, c.Data[4:]...)
		}
	}
	flush()

	if !haveACTL {
		return nil
	}
	if uint32(len(fctls)) != numFrames {
		return &ParseError{fmt.Sprintf("acTL declares %d frames, found %d fcTL chunks", numFrames, len(fctls))}
	}

	frames := make([]pngimage.Frame, len(fctls))
	for i, fc := range fctls {
		data := frameData[fc.sequenceNumber]
		if data == nil && i == 0 {
			// The default image doubles as frame 0 when no fdAT was
			// emitted for the first fcTL (the common "default image is
			// also the first frame" APNG encoding).
			data = idatDefault
		}
		frameImg := &pngimage.Image{IHDR: img.IHDR}
		frameImg.IHDR.Width, frameImg.IHDR.Height = fc.width, fc.height
		if err := rawdata.Decode(frameImg, data); err != nil {
			return fmt.Errorf("apng: frame %d: %w", i, err)
		}
		frames[i] = pngimage.Frame{
			Width: fc.width, Height: fc.height,
			XOffset: fc.xOffset, YOffset: fc.yOffset,
			DelayNum: fc.delayNum, DelayDen: fc.delayDen,
			DisposeOp: fc.disposeOp, BlendOp: fc.blendOp,
			Pixels: frameImg.Pixels,
		}
	}

	img.Animation = &pngimage.Animation{NumPlays: numPlays, Frames: frames}
	return nil
}
