// Package trial implements the trial compressor (spec §4.6): given
// filtered scanline bytes and a DEFLATE parameter set, it produces a
// compressed size and byte buffer, with a size-only short-circuit so the
// search driver can abort a doomed candidate without paying for the full
// encode.
package trial

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/flate"
)

// Strategy mirrors zlib/libdeflate's compression strategy knob.
type Strategy uint8

const (
	StrategyDefault Strategy = iota
	StrategyFiltered
	StrategyHuffmanOnly
	StrategyRLE
)

// Method is the compression method requested (spec §6 Options.deflate).
type Method uint8

const (
	MethodLibdeflate Method = iota
	MethodZopfli
)

// Params is one DEFLATE parameter set trialed by the search driver.
type Params struct {
	Method   Method
	Level    int // 1..12 for Libdeflate; ignored for Zopfli
	Strategy Strategy
	// Iterations is the zopfli iteration count (1..255), carried for
	// Method == MethodZopfli. Compress does not read it.
	Iterations int
}

// clampedLevel maps the spec's 1..12 libdeflate level range onto the
// klauspost/compress/flate level range of 1..9 (BestCompression); levels
// above 9 are clamped to BestCompression, since klauspost/compress/flate
// itself only implements zlib-equivalent levels.
func clampedLevel(level int) int {
	if level < flate.BestSpeed {
		return flate.BestSpeed
	}
	if level > flate.BestCompression {
		return flate.BestCompression
	}
	return level
}

// writerPool caches *flate.Writer instances keyed by level, grounded on
// the teacher's zstdEncPool/zstdDecPool sync.Pool usage (codec.go).
type writerPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

var pool = &writerPool{pools: make(map[int]*sync.Pool)}

func (p *writerPool) get(level int) *flate.Writer {
	p.mu.Lock()
	sp, ok := p.pools[level]
	if !ok {
		sp = &sync.Pool{New: func() any {
			w, err := flate.NewWriter(nil, level)
			if err != nil {
				// level is always pre-clamped to a valid range by
				// clampedLevel, so this can only fire on a programming
				// error.
				panic(fmt.Sprintf("trial: invalid flate level %d: %v", level, err))
			}
			return w
		}}
		p.pools[level] = sp
	}
	p.mu.Unlock()
	return sp.Get().(*flate.Writer)
}

func (p *writerPool) put(level int, w *flate.Writer) {
	p.mu.Lock()
	sp := p.pools[level]
	p.mu.Unlock()
	sp.Put(w)
}

// Result is the outcome of one trial compression.
type Result struct {
	Size  int
	Bytes []byte
}

// boundedWriter counts bytes written and reports ErrExceedsBound once
// the running total passes a configured bound, letting Compress abort a
// doomed trial mid-stream instead of finishing the DEFLATE encode (spec
// §4.6's "size-only, short-circuit if size exceeds current best" and
// spec §5's cooperative-pruning cancellation rule).
type boundedWriter struct {
	buf   bytes.Buffer
	bound int // <=0 means unbounded
	n     int
}

// ErrExceedsBound is returned by Compress when sizeBound pruning fires.
var ErrExceedsBound = fmt.Errorf("trial: exceeds size bound")

func (w *boundedWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	if w.bound > 0 && w.n >= w.bound {
		return 0, ErrExceedsBound
	}
	return w.buf.Write(p)
}

// Compress runs one trial: filtered is deflated under params. If
// sizeBound > 0 and the compressed size would reach or exceed it, the
// encode aborts early and Compress returns (nil, ErrExceedsBound) — the
// caller (the search driver) treats this as "not better", never as a
// fatal error.
func Compress(filtered []byte, params Params, sizeBound int) (*Result, error) {
	switch params.Method {
	case MethodZopfli:
		return compressZopfliStyle(filtered, params, sizeBound)
	default:
		return compressOnce(filtered, clampedLevel(params.Level), sizeBound)
	}
}

func compressOnce(filtered []byte, level int, sizeBound int) (*Result, error) {
	bw := &boundedWriter{bound: sizeBound}
	w := pool.get(level)
	w.Reset(bw)
	_, err := w.Write(filtered)
	if err == nil {
		err = w.Close()
	}
	pool.put(level, w)
	if err != nil {
		if err == ErrExceedsBound {
			return nil, ErrExceedsBound
		}
		return nil, fmt.Errorf("trial: deflate: %w", err)
	}
	out := bw.buf.Bytes()
	return &Result{Size: len(out), Bytes: out}, nil
}

// compressZopfliStyle approximates the spec's "max effort" zopfli-style
// near-optimal DEFLATE (spec §4.6, §9). klauspost/compress/flate, like
// stdlib compress/flate, does not expose zopfli's iterative block-
// splitting search, and no pack example imports a real Go zopfli
// implementation (see DESIGN.md) — fabricating one behind a fake
// dependency is against this module's rules, and deflating the same
// bytes twice at BestCompression is deterministic and wasteful. So "max
// effort" here means: run BestCompression once. params.Iterations is not
// read, here or in internal/search, so two Zopfli parameter sets that
// differ only in Iterations produce identical output.
func compressZopfliStyle(filtered []byte, params Params, sizeBound int) (*Result, error) {
	return compressOnce(filtered, flate.BestCompression, sizeBound)
}

// Decompress inflates a DEFLATE stream produced by Compress (or by any
// spec-conformant PNG encoder).
func Decompress(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("trial: inflate: %w", err)
	}
	return buf.Bytes(), nil
}
