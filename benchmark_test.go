package smbprovider

import (
	"bytes"
	"fmt"
	"io"
	"testing"
)

func newBenchProvider(b *testing.B) (*Provider, *MockBackend) {
	b.Helper()
	backend := NewMockBackend()
	p, err := NewWithFactory("/bench", testConfig(), NewMockConnectionFactory(backend))
	if err != nil {
		b.Fatalf("NewWithFactory failed: %v", err)
	}
	b.Cleanup(func() { _ = p.Close() })
	return p, backend
}

// BenchmarkStat measures classification of an existing file.
func BenchmarkStat(b *testing.B) {
	p, backend := newBenchProvider(b)
	backend.AddFile("bench/a/b/c/file.txt", []byte("x"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Stat("/a/b/c/file.txt"); err != nil {
			b.Fatalf("Stat failed: %v", err)
		}
	}
}

func benchmarkWrite(b *testing.B, size int) {
	p, _ := newBenchProvider(b)
	data := bytes.Repeat([]byte("x"), size)

	b.ResetTimer()
	b.SetBytes(int64(size))
	for i := 0; i < b.N; i++ {
		if err := p.Write(fmt.Sprintf("/w/file_%d.bin", i%16), bytes.NewReader(data)); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

func BenchmarkSmallFileWrite(b *testing.B)  { benchmarkWrite(b, 1024) }
func BenchmarkMediumFileWrite(b *testing.B) { benchmarkWrite(b, 64*1024) }
func BenchmarkLargeFileWrite(b *testing.B)  { benchmarkWrite(b, 1024*1024) }

func benchmarkRead(b *testing.B, size int) {
	p, backend := newBenchProvider(b)
	backend.AddFile("bench/file.bin", bytes.Repeat([]byte("x"), size))

	b.ResetTimer()
	b.SetBytes(int64(size))
	for i := 0; i < b.N; i++ {
		if err := p.Read("/file.bin", io.Discard, 0); err != nil {
			b.Fatalf("Read failed: %v", err)
		}
	}
}

func BenchmarkSmallFileRead(b *testing.B) { benchmarkRead(b, 1024) }
func BenchmarkLargeFileRead(b *testing.B) { benchmarkRead(b, 1024*1024) }

// BenchmarkEnumerate measures a full walk over a tree of 10x10 files.
func BenchmarkEnumerate(b *testing.B) {
	p, backend := newBenchProvider(b)
	for d := 0; d < 10; d++ {
		for f := 0; f < 10; f++ {
			backend.AddFile(fmt.Sprintf("bench/dir_%d/file_%d.txt", d, f), []byte("data"))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries, err := p.Enumerate("/", false)
		if err != nil {
			b.Fatalf("Enumerate failed: %v", err)
		}
		if len(entries) != 100 {
			b.Fatalf("got %d entries, want 100", len(entries))
		}
	}
}
