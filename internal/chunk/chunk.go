// Package chunk implements the PNG chunk codec (spec §4.1): splitting a
// byte stream into length-prefixed, CRC-checked chunks, and the inverse
// serialization of a chunk sequence back into a framed byte stream.
package chunk

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	bst "github.com/mixcode/binarystruct"
)

// Signature is the fixed 8-byte PNG file signature.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// MaxLength is the largest payload length a single chunk may carry
// (2^31 - 1), per the PNG spec.
const MaxLength = 0x7FFFFFFF

// Chunk is a single PNG chunk: a 4-byte ASCII type tag and its payload.
// The CRC is not stored; it is recomputed from Type+Data on demand.
type Chunk struct {
	Type string
	Data []byte
}

// header is the wire layout of a chunk's length+type prefix, read with
// binarystruct instead of manual big-endian unpacking.
type header struct {
	Length int    `binary:"uint32"`
	Type   string `binary:"[4]byte"`
}

// IsCritical reports whether the chunk type is critical (must be
// understood by every decoder), per the PNG case-bit convention: the
// first letter of the tag is uppercase for critical chunks.
func (c Chunk) IsCritical() bool {
	return len(c.Type) == 4 && c.Type[0] >= 'A' && c.Type[0] <= 'Z'
}

// IsAncillary is the complement of IsCritical.
func (c Chunk) IsAncillary() bool {
	return !c.IsCritical()
}

// CRC computes the chunk's CRC-32 (IEEE) over its type tag and payload,
// matching the on-disk field. CRC-32 itself is treated as an external
// black box per spec §1; this wraps stdlib hash/crc32.
func (c Chunk) CRC() uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(c.Type))
	h.Write(c.Data)
	return h.Sum32()
}

// Error kinds returned by Parse.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "chunk: " + e.Reason }

var (
	ErrBadSignature = &ParseError{"bad PNG signature"}
	ErrTruncated    = &ParseError{"truncated stream"}
	ErrOversized    = &ParseError{"chunk length exceeds 2^31-1"}
	ErrBadCRC       = &ParseError{"chunk CRC mismatch"}
)

// Parse reads the PNG signature followed by a sequence of chunks from r,
// stopping after (and including) the IEND chunk. If fixErrors is true, a
// CRC mismatch is tolerated (the chunk is kept as parsed rather than
// rejected); otherwise a bad CRC is a fatal ErrBadCRC.
func Parse(r io.Reader, fixErrors bool) ([]Chunk, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if sig != Signature {
		return nil, ErrBadSignature
	}

	var chunks []Chunk
	for {
		var h header
		if _, err := bst.Read(r, bst.BigEndian, &h); err != nil {
			if err == io.EOF {
				return nil, ErrTruncated
			}
			return nil, err
		}
		if h.Length < 0 || h.Length > MaxLength {
			return nil, ErrOversized
		}

		data := make([]byte, h.Length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, ErrTruncated
		}

		var crcBuf [4]byte
		if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
			return nil, ErrTruncated
		}
		wantCRC := uint32(crcBuf[0])<<24 | uint32(crcBuf[1])<<16 | uint32(crcBuf[2])<<8 | uint32(crcBuf[3])

		c := Chunk{Type: h.Type, Data: data}
		if c.CRC() != wantCRC && !fixErrors {
			return nil, ErrBadCRC
		}

		chunks = append(chunks, c)
		if c.Type == "IEND" {
			break
		}
	}
	return chunks, nil
}

// WriteTo serializes the chunk to w as length+type+payload+CRC, all
// fields big-endian, and returns the number of bytes written.
func (c Chunk) WriteTo(w io.Writer) (int64, error) {
	if len(c.Type) != 4 {
		return 0, fmt.Errorf("chunk: invalid type tag %q", c.Type)
	}
	var lenBuf [4]byte
	n := uint32(len(c.Data))
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)

	var crcBuf [4]byte
	crc := c.CRC()
	crcBuf[0] = byte(crc >> 24)
	crcBuf[1] = byte(crc >> 16)
	crcBuf[2] = byte(crc >> 8)
	crcBuf[3] = byte(crc)

	var written int64
	for _, b := range [][]byte{lenBuf[:], []byte(c.Type), c.Data, crcBuf[:]} {
		n, err := w.Write(b)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Encode serializes the signature followed by every chunk in order.
func Encode(chunks []Chunk) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(Signature[:])
	for _, c := range chunks {
		if _, err := c.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Split splits data into chunks of at most maxLen bytes each (the last
// chunk may be shorter), preserving order. Used to re-chunk a compressed
// IDAT/fdAT stream (spec §4.2) into practically-sized pieces.
func Split(data []byte, maxLen int) [][]byte {
	if maxLen <= 0 {
		maxLen = len(data)
		if maxLen == 0 {
			maxLen = 1
		}
	}
	var out [][]byte
	for len(data) > 0 {
		n := maxLen
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
