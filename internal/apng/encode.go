package apng

import (
	"encoding/binary"

	"github.com/pixbake/pngopt/internal/chunk"
	"github.com/pixbake/pngopt/internal/pngimage"
)

// Encode builds the acTL/fcTL/fdAT chunk sequence for an optimized
// animation, given the already-compressed IDAT payload for each frame
// (one entry per anim.Frames, produced by running the search driver
// independently per frame per spec §4.9). Frame 0's payload becomes the
// plain IDAT stream (the common "default image doubles as frame 0"
// encoding); every later frame's payload is wrapped in one or more fdAT
// chunks. Sequence numbers cover fcTL and fdAT chunks in emission order,
// matching shutej-apng's SequenceNumbers/Chunk_fdAT pairing.
func Encode(anim *pngimage.Animation, frameIDAT [][]byte, maxChunkLen int) ([]chunk.Chunk, error) {
	if len(frameIDAT) != len(anim.Frames) {
		return nil, &ParseError{"frame payload count does not match frame count"}
	}

	var out []chunk.Chunk
	out = append(out, chunk.Chunk{Type: "acTL", Data: encodeACTL(uint32(len(anim.Frames)), anim.NumPlays)})

	var seq uint32
	for i, f := range anim.Frames {
		out = append(out, chunk.Chunk{Type: "fcTL", Data: encodeFCTL(seq, f)})
		seq++

		payload := frameIDAT[i]
		if i == 0 {
			for _, part := range chunk.Split(payload, maxChunkLen) {
				out = append(out, chunk.Chunk{Type: "IDAT", Data: part})
			}
			continue
		}
		// fdAT carries a 4-byte sequence number ahead of the payload, so
		// split at maxChunkLen-4 to keep the whole chunk within bound.
		fdatMax := maxChunkLen - 4
		for _, part := range chunk.Split(payload, fdatMax) {
			out = append(out, chunk.Chunk{Type: "fdAT", Data: encodeFDAT(seq, part)})
			seq++
		}
	}
	return out, nil
}

func encodeACTL(numFrames, numPlays uint32) []byte {
	buf := make([]byte, actlSize)
	binary.BigEndian.PutUint32(buf[0:4], numFrames)
	binary.BigEndian.PutUint32(buf[4:8], numPlays)
	return buf
}

func encodeFCTL(seq uint32, f pngimage.Frame) []byte {
	buf := make([]byte, fctlSize)
	binary.BigEndian.PutUint32(buf[0:4], seq)
	binary.BigEndian.PutUint32(buf[4:8], f.Width)
	binary.BigEndian.PutUint32(buf[8:12], f.Height)
	binary.BigEndian.PutUint32(buf[12:16], f.XOffset)
	binary.BigEndian.PutUint32(buf[16:20], f.YOffset)
	binary.BigEndian.PutUint16(buf[20:22], f.DelayNum)
	binary.BigEndian.PutUint16(buf[22:24], f.DelayDen)
	buf[24] = f.DisposeOp
	buf[25] = f.BlendOp
	return buf
}

func encodeFDAT(seq uint32, idat []byte) []byte {
	buf := make([]byte, 4+len(idat))
	binary.BigEndian.PutUint32(buf[0:4], seq)
	copy(buf[4:], idat)
	return buf
}
