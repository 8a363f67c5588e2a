package trial

import (
	"bytes"
	stdflate "compress/flate"
	"math/rand"
	"testing"
)

// corpusBytes returns a deterministic 256KiB buffer with a repeated half,
// standing in for a filtered scanline stream that compresses well but
// isn't trivially all-zero, shared by the benchmarks in this package.
func corpusBytes() []byte {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 1<<18)
	rng.Read(data)
	copy(data[1<<17:], data[:1<<17])
	return data
}

func BenchmarkStdlibFlate(b *testing.B) {
	data := corpusBytes()
	buf := &bytes.Buffer{}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Reset()
		w, err := stdflate.NewWriter(buf, stdflate.BestCompression)
		if err != nil {
			b.Fatalf("NewWriter: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			b.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			b.Fatalf("close: %v", err)
		}
	}
}

func BenchmarkTrialCompress(b *testing.B) {
	data := corpusBytes()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Compress(data, Params{Method: MethodLibdeflate, Level: 9}, 0); err != nil {
			b.Fatalf("Compress: %v", err)
		}
	}
}
