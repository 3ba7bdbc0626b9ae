package scanner

import (
	"bytes"
	"strings"
	"testing"
)

func benchmarkData() []byte {
	return []byte(strings.Repeat(`1,Jane Roe,Stanford University
2,John Doe,Harvard University
3,Ann Smith,Massachusetts Institute of Technology
4,Bob Jones,Harvard Medical School
5,Eve Adams,University of Oxford
`, 2000))
}

func benchmarkScan(b *testing.B, opts ...Option) {
	data := benchmarkData()
	s, err := New([]byte("Harvard"), opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := s.Scan(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScan(b *testing.B) { benchmarkScan(b) }

func BenchmarkScanFoldCase(b *testing.B) { benchmarkScan(b, WithFoldCase(true)) }

func BenchmarkScanSmallChunk(b *testing.B) { benchmarkScan(b, WithChunkSize(64)) }

func BenchmarkScanLargeChunk(b *testing.B) { benchmarkScan(b, WithChunkSize(1<<20)) }
